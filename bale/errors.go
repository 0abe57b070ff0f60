// Copyright (c) 2024 RoseLoverX

package bale

import "github.com/pkg/errors"

var (
	// ErrWaitExpired is returned by WaitFor when no matching event arrived in time.
	ErrWaitExpired = errors.New("wait expired")
	// ErrWaitCancelled is returned by WaitFor when the dispatcher stopped or
	// the caller's context ended first.
	ErrWaitCancelled = errors.New("wait cancelled")

	ErrAlreadyRunning = errors.New("dispatcher is already running")
	ErrNotRunning     = errors.New("dispatcher is not running")
	ErrInvalidHandler = errors.New("invalid handler")
	ErrNoClient       = errors.New("object is not bound to a client")
)
