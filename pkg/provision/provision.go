// pkg/provision/provision.go
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
)

// ErrFatal matches every *FatalError via errors.Is.
var ErrFatal = errors.New("provision: fatal topic setup failure")

// FatalError is returned when a topic could not be created for a reason
// other than it already existing. Startup must not continue past it.
type FatalError struct {
	Topic string
	Err   error
}

func (e *FatalError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("provision: create topics: %v", e.Err)
	}
	return fmt.Sprintf("provision: create topic %q: %v", e.Topic, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func (e *FatalError) Is(target error) bool { return target == ErrFatal }

type Config struct {
	Partitions        int
	ReplicationFactor int
}

// Provisioner makes sure the topics a service uses exist before it
// starts consuming.
type Provisioner struct {
	admin broker.Admin
	cfg   Config
	log   *zap.Logger
}

func New(admin broker.Admin, cfg Config, log *zap.Logger) *Provisioner {
	if cfg.Partitions < 1 {
		cfg.Partitions = 1
	}
	if cfg.ReplicationFactor < 1 {
		cfg.ReplicationFactor = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Provisioner{admin: admin, cfg: cfg, log: log}
}

// EnsureTopics creates every named topic that does not exist yet. Running
// it again is harmless. Empty names are skipped and duplicates collapsed.
func (p *Provisioner) EnsureTopics(ctx context.Context, names ...string) error {
	specs := p.specs(names)
	if len(specs) == 0 {
		return nil
	}

	results, err := p.admin.CreateTopics(ctx, specs...)
	if err != nil {
		return &FatalError{Err: err}
	}

	var errs []error
	for _, s := range specs {
		terr, ok := results[s.Name]
		switch {
		case !ok:
			errs = append(errs, &FatalError{Topic: s.Name, Err: errors.New("no result from broker")})
		case terr == nil:
			p.log.Info("topic created", zap.String("topic", s.Name),
				zap.Int("partitions", s.Partitions), zap.Int("replicationFactor", s.ReplicationFactor))
		case errors.Is(terr, broker.ErrTopicExists):
			p.log.Debug("topic already exists", zap.String("topic", s.Name))
		default:
			p.log.Error("topic creation failed", zap.String("topic", s.Name), zap.Error(terr))
			errs = append(errs, &FatalError{Topic: s.Name, Err: terr})
		}
	}
	return errors.Join(errs...)
}

func (p *Provisioner) specs(names []string) []broker.TopicSpec {
	seen := make(map[string]struct{}, len(names))
	out := make([]broker.TopicSpec, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, broker.TopicSpec{
			Name:              n,
			Partitions:        p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}
	return out
}
