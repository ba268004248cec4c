package service

import "github.com/exogenesis/timevault/internal"

var logger = internal.Logger
