// pkg/sample/client.go
package sample

import (
	"context"
	"errors"
	"time"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/rpc"
)

// Client calls the sample service over the broker, one Requestor per
// operation, each listening on its completed-* reply topic.
type Client struct {
	create *rpc.Requestor[WantsCreateSampleEvent, CompletedCreateSampleEvent]
	update *rpc.Requestor[WantsUpdateSampleEvent, CompletedUpdateSampleEvent]
	del    *rpc.Requestor[WantsDeleteSampleEvent, CompletedDeleteSampleEvent]
	get    *rpc.Requestor[WantsGetSampleEvent, CompletedGetSampleEvent]
	getAll *rpc.Requestor[WantsGetAllSampleEvent, CompletedGetAllSampleEvent]
}

func NewClient(tr broker.Transport, opts ...rpc.Option) (c *Client, err error) {
	c = &Client{}
	defer func() {
		if err != nil {
			_ = c.Shutdown(context.Background())
			c = nil
		}
	}()

	if c.create, err = rpc.NewRequestor[WantsCreateSampleEvent, CompletedCreateSampleEvent](tr, CompletedCreateTopic, opts...); err != nil {
		return
	}
	if c.update, err = rpc.NewRequestor[WantsUpdateSampleEvent, CompletedUpdateSampleEvent](tr, CompletedUpdateTopic, opts...); err != nil {
		return
	}
	if c.del, err = rpc.NewRequestor[WantsDeleteSampleEvent, CompletedDeleteSampleEvent](tr, CompletedDeleteTopic, opts...); err != nil {
		return
	}
	if c.get, err = rpc.NewRequestor[WantsGetSampleEvent, CompletedGetSampleEvent](tr, CompletedGetTopic, opts...); err != nil {
		return
	}
	c.getAll, err = rpc.NewRequestor[WantsGetAllSampleEvent, CompletedGetAllSampleEvent](tr, CompletedGetAllTopic, opts...)
	return
}

func (c *Client) Create(ctx context.Context, e WantsCreateSampleEvent, timeout time.Duration) (CompletedCreateSampleEvent, error) {
	return c.create.Call(ctx, WantsCreateTopic, e, timeout)
}

func (c *Client) Update(ctx context.Context, e WantsUpdateSampleEvent, timeout time.Duration) (CompletedUpdateSampleEvent, error) {
	return c.update.Call(ctx, WantsUpdateTopic, e, timeout)
}

func (c *Client) Delete(ctx context.Context, e WantsDeleteSampleEvent, timeout time.Duration) (CompletedDeleteSampleEvent, error) {
	return c.del.Call(ctx, WantsDeleteTopic, e, timeout)
}

func (c *Client) Get(ctx context.Context, e WantsGetSampleEvent, timeout time.Duration) (CompletedGetSampleEvent, error) {
	return c.get.Call(ctx, WantsGetTopic, e, timeout)
}

func (c *Client) GetAll(ctx context.Context, e WantsGetAllSampleEvent, timeout time.Duration) (CompletedGetAllSampleEvent, error) {
	return c.getAll.Call(ctx, WantsGetAllTopic, e, timeout)
}

// Pending is the number of calls in flight across all operations.
func (c *Client) Pending() int {
	return c.create.Pending() + c.update.Pending() + c.del.Pending() + c.get.Pending() + c.getAll.Pending()
}

// Shutdown cancels in-flight calls and closes every Requestor.
func (c *Client) Shutdown(ctx context.Context) error {
	var errs []error
	if c.create != nil {
		errs = append(errs, c.create.Shutdown(ctx))
	}
	if c.update != nil {
		errs = append(errs, c.update.Shutdown(ctx))
	}
	if c.del != nil {
		errs = append(errs, c.del.Shutdown(ctx))
	}
	if c.get != nil {
		errs = append(errs, c.get.Shutdown(ctx))
	}
	if c.getAll != nil {
		errs = append(errs, c.getAll.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
