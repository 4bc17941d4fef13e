// Package autoload initializes the global logger from the environment as a
// blank-import side effect.
package autoload

import (
	configx "github.com/iafluence/agentic-seller/pkg/config"
	logx "github.com/iafluence/agentic-seller/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
