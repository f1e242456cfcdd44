package config

import "errors"

var errOversizedReload = errors.New("config: systick reload value exceeds 24-bit field")
