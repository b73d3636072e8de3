package storage

import "errors"

var (
	ErrGet    = errors.New("unable to retrieve data from cache storage")
	ErrSet    = errors.New("unable to store data in cache storage")
	ErrClear  = errors.New("unable to clear cache storage")
	ErrDecode = errors.New("unable to decode cached entry")
)
