// pkg/sample/service.go
package sample

import (
	"context"
	"errors"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/rpc"
)

type closer interface {
	Shutdown(ctx context.Context) error
}

// Service answers the five sample request topics from a Store.
type Service struct {
	store      *Store
	responders []closer
}

// NewService starts one Responder per request topic. On failure every
// Responder already started is shut down again.
func NewService(tr broker.Transport, store *Store, opts ...rpc.Option) (*Service, error) {
	s := &Service{store: store}

	steps := []func() (closer, error){
		func() (closer, error) {
			return rpc.NewResponder[WantsCreateSampleEvent, CompletedCreateSampleEvent](tr, WantsCreateTopic, s.create, opts...)
		},
		func() (closer, error) {
			return rpc.NewResponder[WantsUpdateSampleEvent, CompletedUpdateSampleEvent](tr, WantsUpdateTopic, s.update, opts...)
		},
		func() (closer, error) {
			return rpc.NewResponder[WantsDeleteSampleEvent, CompletedDeleteSampleEvent](tr, WantsDeleteTopic, s.delete, opts...)
		},
		func() (closer, error) {
			return rpc.NewResponder[WantsGetSampleEvent, CompletedGetSampleEvent](tr, WantsGetTopic, s.get, opts...)
		},
		func() (closer, error) {
			return rpc.NewResponder[WantsGetAllSampleEvent, CompletedGetAllSampleEvent](tr, WantsGetAllTopic, s.getAll, opts...)
		},
	}
	for _, step := range steps {
		r, err := step()
		if err != nil {
			_ = s.Shutdown(context.Background())
			return nil, err
		}
		s.responders = append(s.responders, r)
	}
	return s, nil
}

func (s *Service) Store() *Store { return s.store }

// Shutdown stops every Responder, in reverse start order.
func (s *Service) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(s.responders) - 1; i >= 0; i-- {
		errs = append(errs, s.responders[i].Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (s *Service) create(_ context.Context, e WantsCreateSampleEvent) (rpc.Result[CompletedCreateSampleEvent], error) {
	if err := e.Validate(); err != nil {
		return rpc.NoReply[CompletedCreateSampleEvent](), err
	}
	d := s.store.Create(SampleData{Name: e.Name, Description: e.Description, Type: e.Type, Count: e.Count})
	return rpc.Reply(CompletedCreateSampleEvent{SampleData: d}), nil
}

func (s *Service) update(_ context.Context, e WantsUpdateSampleEvent) (rpc.Result[CompletedUpdateSampleEvent], error) {
	if err := e.Validate(); err != nil {
		return rpc.NoReply[CompletedUpdateSampleEvent](), err
	}
	d, ok := s.store.Update(e.SampleData)
	if !ok {
		return rpc.Reply(CompletedUpdateSampleEvent{SampleData: SampleData{ID: e.ID}}), nil
	}
	return rpc.Reply(CompletedUpdateSampleEvent{SampleData: d, Found: true}), nil
}

func (s *Service) delete(_ context.Context, e WantsDeleteSampleEvent) (rpc.Result[CompletedDeleteSampleEvent], error) {
	return rpc.Reply(CompletedDeleteSampleEvent{ID: e.ID, Found: s.store.Delete(e.ID)}), nil
}

func (s *Service) get(_ context.Context, e WantsGetSampleEvent) (rpc.Result[CompletedGetSampleEvent], error) {
	d, ok := s.store.Get(e.ID)
	if !ok {
		return rpc.Reply(CompletedGetSampleEvent{SampleData: SampleData{ID: e.ID}}), nil
	}
	return rpc.Reply(CompletedGetSampleEvent{SampleData: d, Found: true}), nil
}

func (s *Service) getAll(_ context.Context, e WantsGetAllSampleEvent) (rpc.Result[CompletedGetAllSampleEvent], error) {
	return rpc.Reply(s.store.List(e)), nil
}
