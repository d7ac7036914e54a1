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

package config

import (
	"fmt"
	"os"
	"testing"
)

// Check config loads from a file
func Test_InitializeConfigWithFile(t *testing.T) {
	cfg, err := NewConfigFromFile("./example_config.json")
	if err != nil {
		t.Fatalf("Error initializing config: %v", err)
	}
	if cfg.MosaicBucket != "mosaic-bucket" {
		t.Errorf("cfg.MosaicBucket got %q; want: %q", cfg.MosaicBucket, "mosaic-bucket")
	}
	if cfg.CropHalfExtentPix != 300 {
		t.Errorf("cfg.CropHalfExtentPix got %v; want: 300", cfg.CropHalfExtentPix)
	}
	if cfg.StitchExecutor != "null" {
		t.Errorf("cfg.StitchExecutor got %q; want: %q", cfg.StitchExecutor, "null")
	}
}

// Check config loads from a JSON string
func Test_InitializeConfigWithJsonString(t *testing.T) {
	want := "jobsBucketCustomConfig"
	configStr := fmt.Sprintf(`{"StitchJobsBucket": "%s", "SerialEngine": true}`, want)
	cfg, err := NewConfigFromJsonString(configStr)
	if err != nil {
		t.Fatalf("Error initializing config: %v", err)
	}
	if cfg.StitchJobsBucket != want {
		t.Errorf("cfg.StitchJobsBucket got %q; want: %q", cfg.StitchJobsBucket, want)
	}
	if !cfg.SerialEngine {
		t.Errorf("cfg.SerialEngine got false; want: true")
	}
}

// Check zero values pick up defaults but configured values survive
func Test_ApplyDefaults(t *testing.T) {
	var cfg APIConfig
	cfg.StitchRetryBackoffMs = 125

	ApplyDefaults(&cfg)

	if cfg.StitchRetryCount != 3 {
		t.Errorf("cfg.StitchRetryCount got %v; want: 3", cfg.StitchRetryCount)
	}
	if cfg.StitchRetryBackoffMs != 125 {
		t.Errorf("cfg.StitchRetryBackoffMs got %v; want: 125", cfg.StitchRetryBackoffMs)
	}
	if cfg.MaxStitchWorkers != 6 {
		t.Errorf("cfg.MaxStitchWorkers got %v; want: 6", cfg.MaxStitchWorkers)
	}
	if cfg.CropHalfExtentPix != 256 {
		t.Errorf("cfg.CropHalfExtentPix got %v; want: 256", cfg.CropHalfExtentPix)
	}
	if cfg.OverlapTolerancePix != 8 {
		t.Errorf("cfg.OverlapTolerancePix got %v; want: 8", cfg.OverlapTolerancePix)
	}
	if cfg.MaxStitchNodes != 20 {
		t.Errorf("cfg.MaxStitchNodes got %v; want: 20", cfg.MaxStitchNodes)
	}
	if cfg.JobMaxTimeSec != 900 {
		t.Errorf("cfg.JobMaxTimeSec got %v; want: 900", cfg.JobMaxTimeSec)
	}
}

// Check that the config can be overridden with Environment Variables
func Test_OverrideConfigWithEnvVars(t *testing.T) {
	wantBucket := "ENV-SET-MosaicBucket"
	os.Setenv("MICROSTITCH_CONFIG_MosaicBucket", wantBucket)
	os.Setenv("MICROSTITCH_CONFIG_SerialEngine", "true")
	os.Setenv("MICROSTITCH_CONFIG_StitchRetryCount", "5")
	os.Setenv("MICROSTITCH_CONFIG_StitchTimeoutSec", "90")

	cfg, err := NewConfigFromFile("./example_config.json")
	if err != nil {
		t.Fatalf("Error initializing config: %v", err)
	}
	if cfg.MosaicBucket != wantBucket {
		t.Errorf("cfg.MosaicBucket got %q; want: %q", cfg.MosaicBucket, wantBucket)
	}
	if !cfg.SerialEngine {
		t.Errorf("cfg.SerialEngine got false; want: true")
	}
	if cfg.StitchRetryCount != 5 {
		t.Errorf("cfg.StitchRetryCount got %v; want: 5", cfg.StitchRetryCount)
	}
	if cfg.StitchTimeoutSec != 90 {
		t.Errorf("cfg.StitchTimeoutSec got %v; want: 90", cfg.StitchTimeoutSec)
	}
}
