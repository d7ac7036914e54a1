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

package fileaccess

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/microstitch/core/core/utils"
)

// Implementation of file access using the local file system. The "bucket" is
// the root directory the rest of the path is joined onto.
type FSAccess struct {
}

func (fs *FSAccess) ListObjects(rootPath string, prefix string) ([]string, error) {
	result := []string{}

	rootOnly := path.Join(rootPath) // path.Join cleans off things like ./ so it matches what Walk reports
	matchPath := fs.filePath(rootPath, prefix)

	// An S3 prefix is not a directory, so walk the deepest directory above the
	// prefix and filter on the whole thing. A prefix matching nothing is an
	// empty listing, not an error, same as S3.
	walkRoot := matchPath
	if info, err := os.Stat(walkRoot); err != nil || !info.IsDir() {
		walkRoot = filepath.Dir(matchPath)
	}
	if _, err := os.Stat(walkRoot); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}
		return result, err
	}

	err := filepath.Walk(walkRoot, func(pathFound string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasPrefix(pathFound, matchPath) {
			// Paths come back relative to the root, same as an S3 listing
			toSave := pathFound
			if strings.HasPrefix(toSave, rootOnly) {
				toSave = toSave[len(rootOnly)+1:]
			}
			result = append(result, toSave)
		}
		return nil
	})

	return result, err
}

func (fs *FSAccess) ObjectExists(rootPath string, filePath string) (bool, error) {
	fullPath := fs.filePath(rootPath, filePath)
	_, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (fs *FSAccess) ReadObject(rootPath string, filePath string) ([]byte, error) {
	fullPath := fs.filePath(rootPath, filePath)
	return os.ReadFile(fullPath)
}

func (fs *FSAccess) WriteObject(rootPath string, filePath string, data []byte) error {
	fullPath := fs.filePath(rootPath, filePath)

	// Ensure any subdirs in between are created
	createPath := filepath.Dir(fullPath)
	err := os.MkdirAll(createPath, 0777)
	if err != nil {
		return err
	}

	// Creates if needed, else truncates and writes
	return os.WriteFile(fullPath, data, 0777)
}

func (fs *FSAccess) ReadJSON(rootPath string, filePath string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := fs.ReadObject(rootPath, filePath)

	if err != nil {
		if emptyIfNotFound && fs.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func (fs *FSAccess) WriteJSON(rootPath string, filePath string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}

	return fs.WriteObject(rootPath, filePath, fileData)
}

func (fs *FSAccess) WriteJSONNoIndent(rootPath string, filePath string, itemsPtr interface{}) error {
	fileData, err := json.Marshal(itemsPtr)
	if err != nil {
		return err
	}

	return fs.WriteObject(rootPath, filePath, fileData)
}

func (fs *FSAccess) DeleteObject(rootPath string, filePath string) error {
	fullPath := fs.filePath(rootPath, filePath)
	return os.Remove(fullPath)
}

func (fs *FSAccess) CopyObject(srcRootPath string, srcPath string, dstRootPath string, dstPath string) error {
	srcFullPath := fs.filePath(srcRootPath, srcPath)

	fin, err := os.Open(srcFullPath)
	if err != nil {
		return err
	}
	defer fin.Close()

	dstFullPath := fs.filePath(dstRootPath, dstPath)
	err = os.MkdirAll(filepath.Dir(dstFullPath), 0777)
	if err != nil {
		return err
	}

	fout, err := os.Create(dstFullPath)
	if err != nil {
		return err
	}
	defer fout.Close()

	_, err = io.Copy(fout, fin)
	return err
}

func (fs *FSAccess) IsNotFoundError(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func (fs *FSAccess) filePath(rootPath string, filePath string) string {
	return path.Join(rootPath, filePath)
}
