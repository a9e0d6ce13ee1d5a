package storage

import "errors"

var ErrPollNotFound = errors.New("poll not found in storage")
var ErrVersionConflict = errors.New("poll was modified concurrently")
var ErrVoteAlreadyExists = errors.New("vote with the same key already exists")
