// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/lu-zero/ldconfig/internal/adapters/config"
	_ "github.com/lu-zero/ldconfig/internal/adapters/elffile"
	_ "github.com/lu-zero/ldconfig/internal/adapters/logger"
	// Register app and engine nodes.
	_ "github.com/lu-zero/ldconfig/internal/app"
	_ "github.com/lu-zero/ldconfig/internal/engine/builder"
)
