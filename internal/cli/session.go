package cli

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/logger"
	"github.com/roach88/multivault/internal/multivault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// session is an engine opened over the --db ledger.
type session struct {
	store  *store.Store
	engine *multivault.Engine
	log    *zap.SugaredLogger
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger builds the zap logger selected by --verbose and --format.
func (o *RootOptions) logger() (*zap.SugaredLogger, error) {
	return logger.New(o.Verbose, o.Format == "json")
}

// authority returns the --config file authority, or the built-in defaults.
func (o *RootOptions) authority() config.Authority {
	if o.Config != "" {
		return config.NewFileAuthority(o.Config)
	}
	return config.NewStatic(config.Default())
}

// snapshot fetches the parameters selected by --config once.
func (o *RootOptions) snapshot(ctx context.Context) (*config.Snapshot, error) {
	return o.authority().Fetch(ctx)
}

// openSession opens the ledger and builds an engine over it. Callers must
// Close the session.
func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	log, err := o.logger()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}

	log.Debugw("opening ledger", "path", o.Database)
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger %s", o.Database)
	}

	eng, err := multivault.New(ctx, st, o.authority(), multivault.WithLogger(log))
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &session{store: st, engine: eng, log: log}, nil
}

// Close releases the ledger.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Errorw("error closing ledger", "error", err)
	}
	_ = s.log.Sync()
}

// parseTerm accepts a 0x-prefixed term id or "atom:DATA", which names the
// atom whose payload is DATA.
func parseTerm(s string) (term.ID, error) {
	if data, ok := strings.CutPrefix(s, "atom:"); ok {
		return term.AtomID([]byte(data)), nil
	}
	return term.ParseID(s)
}

// parseAccount accepts a 0x-prefixed address or a label, which is hashed to
// a deterministic address the way scenario files name accounts.
func parseAccount(s string) (term.Address, error) {
	if s == "" {
		return term.Address{}, errors.New("empty account")
	}
	if strings.HasPrefix(s, "0x") {
		return term.ParseAddress(s)
	}
	return term.AddressFromLabel(s), nil
}
