package redis

import "errors"

var errRecordMissing = errors.New("record missing")
