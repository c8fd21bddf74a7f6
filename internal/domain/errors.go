package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrAlreadyExists = errors.New("already exists")
var ErrInvalidQuality = errors.New("invalid quality")
var ErrProbeFailed = errors.New("probe failed")
var ErrEncodeFailed = errors.New("encode failed")
var ErrPipelineFailed = errors.New("all renditions failed")
