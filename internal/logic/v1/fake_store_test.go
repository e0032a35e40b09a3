package v1

import (
	"context"

	"github.com/sparknet/session-service/internal/core/domain"
)

// fakeStore implements domain.SessionStore for tests. Each operation
// delegates to an optional func field; unset fields answer with benign
// zero values.
type fakeStore struct {
	initSchemaFunc  func(ctx context.Context) error
	createFunc      func(ctx context.Context, uid string, cred *string, device, app, ip string, timeoutMinutes int) (string, error)
	validateFunc    func(ctx context.Context, id string, cred *string, device, app, ip string) (bool, error)
	loadPayloadFunc func(ctx context.Context, id string) (map[string]string, error)
	savePayloadFunc func(ctx context.Context, id string, data map[string]string) error
	destroyFunc     func(ctx context.Context, id string) error
	sweepFunc       func(ctx context.Context) (int64, error)
	getOwnerFunc    func(ctx context.Context, id string) (*string, error)
	getCredFunc     func(ctx context.Context, id string) (*string, error)
	listActiveFunc  func(ctx context.Context, uid string, cred *string) ([]domain.SessionSummary, error)

	loadCalls int
	saveCalls int
}

func (f *fakeStore) InitSchema(ctx context.Context) error {
	if f.initSchemaFunc != nil {
		return f.initSchemaFunc(ctx)
	}
	return nil
}

func (f *fakeStore) Create(ctx context.Context, uid string, cred *string, device, app, ip string, timeoutMinutes int) (string, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, uid, cred, device, app, ip, timeoutMinutes)
	}
	return "deadbeefdeadbeefdeadbeefdeadbeef", nil
}

func (f *fakeStore) Validate(ctx context.Context, id string, cred *string, device, app, ip string) (bool, error) {
	if f.validateFunc != nil {
		return f.validateFunc(ctx, id, cred, device, app, ip)
	}
	return false, nil
}

func (f *fakeStore) LoadPayload(ctx context.Context, id string) (map[string]string, error) {
	f.loadCalls++
	if f.loadPayloadFunc != nil {
		return f.loadPayloadFunc(ctx, id)
	}
	return map[string]string{}, nil
}

func (f *fakeStore) SavePayload(ctx context.Context, id string, data map[string]string) error {
	f.saveCalls++
	if f.savePayloadFunc != nil {
		return f.savePayloadFunc(ctx, id, data)
	}
	return nil
}

func (f *fakeStore) Destroy(ctx context.Context, id string) error {
	if f.destroyFunc != nil {
		return f.destroyFunc(ctx, id)
	}
	return nil
}

func (f *fakeStore) SweepExpired(ctx context.Context) (int64, error) {
	if f.sweepFunc != nil {
		return f.sweepFunc(ctx)
	}
	return 0, nil
}

func (f *fakeStore) GetOwner(ctx context.Context, id string) (*string, error) {
	if f.getOwnerFunc != nil {
		return f.getOwnerFunc(ctx, id)
	}
	return nil, nil
}

func (f *fakeStore) GetCred(ctx context.Context, id string) (*string, error) {
	if f.getCredFunc != nil {
		return f.getCredFunc(ctx, id)
	}
	return nil, nil
}

func (f *fakeStore) ListActive(ctx context.Context, uid string, cred *string) ([]domain.SessionSummary, error) {
	if f.listActiveFunc != nil {
		return f.listActiveFunc(ctx, uid, cred)
	}
	return nil, nil
}
