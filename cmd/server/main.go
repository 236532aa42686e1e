package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/hazardkit/pkg/common"
	"github.com/beam-cloud/hazardkit/pkg/server"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

func main() {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		log.Fatal().Err(err).Msg("error creating config manager")
	}
	config := configManager.GetConfig()
	common.SetupLogging(config.PrettyLogs, config.DebugMode)

	ctx := context.Background()
	src, err := sources.New(ctx, config.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("error opening output source")
	}

	if err := server.NewServer(config.Server, src).Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
