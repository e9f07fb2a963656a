package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/credentials"
	"github.com/mousetail/mousetail/internal/engine"
	"github.com/mousetail/mousetail/internal/logging"
	"github.com/mousetail/mousetail/internal/paths"
	"github.com/mousetail/mousetail/internal/syncer"
	"github.com/mousetail/mousetail/internal/tools"
	"github.com/rs/zerolog"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (o *rootOptions) configFile() string {
	if o.configPath != "" {
		return paths.ExpandHome(o.configPath)
	}
	return paths.ConfigFile()
}

func (o *rootOptions) legacyFile() string {
	return filepath.Join(filepath.Dir(o.configFile()), filepath.Base(paths.LegacyConfigFile()))
}

// runtime is everything a command needs to reach collections and the vault.
type runtime struct {
	cfg      *config.Config
	log      zerolog.Logger
	vault    *credentials.Vault
	accessor *engine.Accessor
	service  *tools.Service
}

func (o *rootOptions) loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadFrom(o.configFile())
	if err != nil {
		return nil, zerolog.Nop(), internalErr(err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, zerolog.Nop(), usageErr("invalid config: %v", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, rootStderr)
	if err != nil {
		return nil, zerolog.Nop(), usageErr("%v", err)
	}
	if err := config.MergeLegacySync(cfg, o.legacyFile()); err != nil {
		log.Warn().Err(err).Msg("failed to read legacy sync settings")
	}
	return cfg, log, nil
}

func (o *rootOptions) newRuntime() (*runtime, error) {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Keyring)
	if err != nil {
		return nil, internalErr(err)
	}
	vault := credentials.NewVault(store)
	endpoints := config.EndpointLoader{Path: o.configFile(), LegacyPath: o.legacyFile()}
	resolver := credentials.NewResolver(vault, endpoints)

	client := engine.NewClient(cfg.Engine, buildVersion)
	accessor := engine.NewAccessor(client, collection.NewLocator(cfg.Collection),
		cfg.Engine.IdleTimeoutDuration(), engine.WithLogger(log))
	orch := syncer.New(accessor, resolver, log)

	return &runtime{
		cfg:      cfg,
		log:      log,
		vault:    vault,
		accessor: accessor,
		service:  tools.NewService(accessor, vault, orch, log),
	}, nil
}

func (r *runtime) Close() {
	if err := r.accessor.Close(); err != nil {
		r.log.Debug().Err(err).Msg("closing engine")
	}
}

// printResult writes the envelope as indented JSON. A failed envelope
// exits with ExitToolErr.
func printResult(w io.Writer, res tools.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return internalErr(err)
	}
	fmt.Fprintln(w, string(data))
	if !res.Success {
		return &exitError{code: ExitToolErr}
	}
	return nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", internalErr(fmt.Errorf("reading password: %w", err))
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", usageErr("empty password on stdin")
	}
	return password, nil
}
