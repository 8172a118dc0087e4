// Package config holds the process-level settings of the game session
// server.
//
// Settings come from command-line flags, each of which can also be set from
// the environment (a .env file in the working directory is loaded first):
//
//	--log-dir   GAME_LOG_DIR         production log directory (default "logs")
//	--spectate  GAME_SPECTATE_ADDR   host:port of the spectator API (default off)
//	--debug     GAME_DEBUG           debug process logging
//
// The first positional argument "test" selects test mode. Validate rejects
// combinations that cannot start.
package config
