// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// API configuration as read from strings/JSON and some constants defined here also
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/microstitch/core/core/logger"
)

////////////////////////////////////////////////////////////////////////////////////////////////////////////
// Configuration for app

// APIConfig combines env vars and config JSON values
type APIConfig struct {
	AWSBucketRegion     string
	AWSCloudwatchRegion string

	AnnotationsPerNode int32 // How many merge requests each stitch node pod is given

	Auth0Domain string // E.g. something.au.auth0.com

	ConfigBucket string

	CropHalfExtentPix int32 // Half width/height of the composite cut around each annotation

	EightBitOutput bool // Write composites as 8-bit greyscale instead of the tile bit depth

	EnvironmentName string

	KubernetesLocation string // "internal" vs "external"

	LogLevel logger.LogLevel // Can be changed at runtime, but if API restarts, it goes back to configured value

	MaxStitchNodes   int32 // Upper limit on pods a single batch may run
	MaxStitchWorkers int32

	// Mongo Connection
	MongoSecret string

	MosaicBucket string // Tile images and mosaic metadata

	OverlapTolerancePix int32 // Tile placements may overlap up to this many pixels before the mosaic is rejected

	SentryEndpoint string

	SerialEngine bool // Engine merges run one at a time, mapping/selection stay parallel

	StitchExecutor string // "null", "image" or "kubernetes"

	StitchJobsBucket string // Job params, composite outputs, catalog CSVs

	StitchNamespace string // Used for running multi-node stitch jobs

	StitchRetryBackoffMs int64
	StitchRetryCount     int32
	StitchTimeoutSec     uint32

	// Vars not set by environment
	NodeCountOverride int32
	KubeConfig        string // Env sets this via command line parameter

	JobMaxTimeSec uint32
}

// How long signed composite download links stay valid
const CompositeDownloadSignedURLExpirySec = 60 * 15

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	return os.Getenv("USERPROFILE") // windows
}

func NewConfigFromFile(configFilePath string) (APIConfig, error) {
	var cfg APIConfig

	fmt.Printf("Loading custom config from: %s\n", configFilePath)
	customConfig, err := os.ReadFile(configFilePath)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file at %s", configFilePath)
	}
	return buildConfig(customConfig)
}

func NewConfigFromJsonString(configJson string) (APIConfig, error) {
	return buildConfig([]byte(configJson))
}

func buildConfig(configJson []byte) (APIConfig, error) {
	var cfg APIConfig

	err := json.Unmarshal(configJson, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse custom config: %v", err)
	}

	// Override Config with any values explicitly set in Env Vars (MICROSTITCH_CONFIG_*)
	// NOTE: For []string slices, pass in a comma-separated string to the corresponding MICROSTITCH_CONFIG_ var
	reflection := reflect.ValueOf(&cfg).Elem()
	for i := 0; i < reflection.NumField(); i++ {
		fieldName := reflection.Type().Field(i).Name
		field := reflection.Field(i)
		if val, present := os.LookupEnv(fmt.Sprintf("MICROSTITCH_CONFIG_%s", fieldName)); present {
			switch field.Kind() {
			case reflect.String:
				field.SetString(val)
			case reflect.Slice:
				if field.Type().Elem().Kind() == reflect.String {
					slicedVal := strings.Split(val, ",")
					field.Set(reflect.ValueOf(slicedVal))
				}
			case reflect.Bool:
				b, err := strconv.ParseBool(val)
				if err != nil {
					fmt.Printf("Could not cast value MICROSTITCH_CONFIG_%s=%s to Bool", fieldName, val)
					continue
				}
				field.SetBool(b)
			case reflect.Int, reflect.Int32, reflect.Int64:
				i, err := strconv.ParseInt(val, 10, 64)
				if err != nil {
					fmt.Printf("Could not cast value MICROSTITCH_CONFIG_%s=%s to Int", fieldName, val)
					continue
				}
				field.SetInt(i)
			case reflect.Uint, reflect.Uint32, reflect.Uint64:
				u, err := strconv.ParseUint(val, 10, 64)
				if err != nil {
					fmt.Printf("Could not cast value MICROSTITCH_CONFIG_%s=%s to Uint", fieldName, val)
					continue
				}
				field.SetUint(u)
			}
		}
	}
	return cfg, nil
}

// ApplyDefaults fills zero values with the settings a deployment almost always
// wants. Init calls it after loading, command line tools call it on configs
// they assemble from flags.
func ApplyDefaults(cfg *APIConfig) {
	if cfg.StitchRetryCount <= 0 {
		cfg.StitchRetryCount = 3
	}
	if cfg.StitchRetryBackoffMs <= 0 {
		cfg.StitchRetryBackoffMs = 500
	}
	if cfg.MaxStitchWorkers <= 0 {
		cfg.MaxStitchWorkers = 6
	}
	if cfg.CropHalfExtentPix <= 0 {
		cfg.CropHalfExtentPix = 256
	}
	if cfg.OverlapTolerancePix <= 0 {
		cfg.OverlapTolerancePix = 8
	}
	if cfg.AnnotationsPerNode <= 0 {
		cfg.AnnotationsPerNode = 8
	}
	if cfg.MaxStitchNodes <= 0 {
		cfg.MaxStitchNodes = 20 // Was hard-coded to this anyway
	}
	if cfg.JobMaxTimeSec <= 0 {
		cfg.JobMaxTimeSec = uint32(15 * 60)
	}
}

// Init config, loads config params
func Init() (APIConfig, error) {
	// Firstly, read command line arguments
	nodeCountOverride := flag.Int("nodeCountOverride", 0, "Overrides node count for stitching, for testing only")
	var kubeconfig *string
	if home := homeDir(); home != "" {
		kubeconfig = flag.String("kubeconfig", filepath.Join(home, ".kube", "config"), "(optional) absolute path to the kubeconfig file")
	} else {
		kubeconfig = flag.String("kubeconfig", "", "absolute path to the kubeconfig file")
	}
	configFilePath := flag.String("customConfigPath", "", "Path to the json file holding a set of custom config for the MicroStitch API")
	flag.Parse()

	// Now that we have that, construct the Config from the possible sources
	var cfg APIConfig
	var err error

	// Populate API Config with contents of the custom config file if supplied
	if configFilePath != nil && *configFilePath != "" {
		// Load config from a referenced json file
		cfg, err = NewConfigFromFile(*configFilePath)
	} else {
		err = errors.New("no configuration provided")
	}
	if err != nil {
		return cfg, err
	}

	if nodeCountOverride != nil && *nodeCountOverride > 0 {
		cfg.NodeCountOverride = int32(*nodeCountOverride)
	}

	ApplyDefaults(&cfg)

	cfg.KubeConfig = *kubeconfig

	return cfg, nil
}
