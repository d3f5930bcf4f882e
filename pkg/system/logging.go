// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger: the development config with debug
// level when debug is set, the JSON production config otherwise.
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	var zlog *zap.Logger
	var err error
	if debug {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return zlog.Sugar(), nil
}

// JobFields returns key/value pairs for SugaredLogger.With or Infow calls.
// The folder is only included for jobs inside a folder.
func JobFields(fullName string) []interface{} {
	for i := len(fullName) - 1; i >= 0; i-- {
		if fullName[i] == '/' {
			return []interface{}{"job", fullName, "folder", fullName[:i]}
		}
	}
	return []interface{}{"job", fullName}
}
