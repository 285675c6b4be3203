package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/rasterproj/cmd"
	"github.com/lepinkainen/rasterproj/config"
	"github.com/lepinkainen/rasterproj/logging"
	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/types"
)

var Version = "dev"

type CLI struct {
	Config   string `help:"Config file (default $XDG_CONFIG_HOME/rasterproj/config.yaml)" type:"path" env:"RASTERPROJ_CONFIG"`
	LogLevel string `name:"log-level" help:"Log level: debug, info, warn, error (default from config)"`
	LogFile  string `name:"log-file" help:"Also write JSON logs to this file" type:"path"`

	Reproject cmd.ReprojectCmd `cmd:"" help:"Reproject GeoTIFFs into the CRS of a reference raster"`
	Info      cmd.InfoCmd      `cmd:"" help:"Show size, bands and CRS of rasters"`
	Verify    cmd.VerifyCmd    `cmd:"" help:"Check reprojected files carry the target CRS"`
	Methods   cmd.MethodsCmd   `cmd:"" help:"List resampling methods"`

	Version kong.VersionFlag `help:"Show version and exit"`
}

// vars are interpolated into kong help texts
func vars() kong.Vars {
	return kong.Vars{
		"version": Version,
		"methods": raster.ResamplingTokens(),
	}
}

// appContext loads the config and builds the logger shared by every command
func (cli *CLI) appContext() (*types.AppContext, error) {
	path := cli.Config
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogFile != "" {
		cfg.LogFile = cli.LogFile
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: os.Stderr})
	if err != nil {
		return nil, err
	}
	return &types.AppContext{Version: Version, Config: cfg, Logger: log}, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rasterproj"),
		kong.Description("Batch reprojection of GeoTIFFs to a common coordinate reference system"),
		kong.UsageOnError(),
		vars(),
	)

	appCtx, err := cli.appContext()
	ctx.FatalIfErrorf(err)

	err = ctx.Run(appCtx)
	_ = appCtx.Logger.Close()
	ctx.FatalIfErrorf(err)
}
