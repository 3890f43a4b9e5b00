package env

import (
	"github.com/thatsimonsguy/svg-playground/internal/config"
)

var Cfg *config.Config
