package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mousetail/mousetail/internal/credentials"
	"github.com/mousetail/mousetail/internal/errcode"
	"github.com/mousetail/mousetail/internal/syncer"
)

// SaveCredentialsArgs are the save_sync_credentials arguments.
type SaveCredentialsArgs struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Endpoint string `json:"endpoint"`
}

// SyncArgs are the sync_collection arguments. A nil SyncMedia means true.
type SyncArgs struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Endpoint       string `json:"endpoint"`
	SyncMedia      *bool  `json:"sync_media"`
	CollectionPath string `json:"collection_path"`
}

// SaveCredentials stores the sync credentials. An empty endpoint clears the
// stored one.
func (s *Service) SaveCredentials(_ context.Context, args SaveCredentialsArgs) Result {
	if err := s.vault.Save(args.Username, args.Password, args.Endpoint); err != nil {
		if errcode.Is(err, errcode.StoreFailed) {
			return Fail(errcode.Wrap(errcode.StoreFailed, fmt.Errorf("Failed to save credentials: %w", err)))
		}
		return Fail(err)
	}
	endpoint := strings.TrimSpace(args.Endpoint)
	where := "for AnkiWeb"
	if endpoint != "" {
		where = fmt.Sprintf("with endpoint '%s'", endpoint)
	}
	s.log.Info().Str("username", args.Username).Bool("custom_endpoint", endpoint != "").Msg("sync credentials saved")
	return OK(map[string]any{
		"message": fmt.Sprintf("Credentials saved securely for user '%s' %s", args.Username, where),
	})
}

// LoadCredentials returns the stored credentials, password included.
func (s *Service) LoadCredentials(context.Context) Result {
	triple, err := s.vault.Load()
	switch {
	case errcode.Is(err, errcode.NoCredentials):
		return Fail(errcode.New(errcode.NoCredentials, "No saved credentials found. Use save_sync_credentials first."))
	case errcode.Is(err, errcode.StoreFailed):
		return Fail(errcode.Wrap(errcode.StoreFailed, fmt.Errorf("Failed to load credentials: %w", err)))
	case err != nil:
		return Fail(err)
	}
	var endpoint any
	if triple.Endpoint != "" {
		endpoint = triple.Endpoint
	}
	return OK(map[string]any{
		"username": triple.Username,
		"password": triple.Password,
		"endpoint": endpoint,
	})
}

// DeleteCredentials removes every stored credential record.
func (s *Service) DeleteCredentials(context.Context) Result {
	if err := s.vault.Delete(); err != nil {
		return Fail(errcode.Wrap(errcode.StoreFailed, fmt.Errorf("Failed to delete credentials: %w", err)))
	}
	s.log.Info().Msg("sync credentials deleted")
	return OK(map[string]any{"message": "Credentials deleted successfully"})
}

// Sync syncs a collection with explicit or stored credentials.
func (s *Service) Sync(ctx context.Context, args SyncArgs) Result {
	includeMedia := true
	if args.SyncMedia != nil {
		includeMedia = *args.SyncMedia
	}
	res := s.syncer.Sync(ctx, syncer.Request{
		Credentials: credentials.Triple{
			Username: args.Username,
			Password: args.Password,
			Endpoint: args.Endpoint,
		},
		IncludeMedia:   includeMedia,
		CollectionPath: args.CollectionPath,
	})
	return fromSync(res)
}

func fromSync(res syncer.Result) Result {
	if res.Success {
		return OK(map[string]any{"message": res.Message, "output": res.Output})
	}
	out := Result{Error: res.Error, Code: res.Code, Data: map[string]any{}}
	if res.Hint != "" {
		out.Data["hint"] = res.Hint
	}
	if res.Required != "" {
		out.Data["required"] = res.Required
	}
	return out
}
