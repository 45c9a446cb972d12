package xdlock_test

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ryazanov-dist/quorumlock/pkg/distributed/xdlock"
)

// MockStore is a hand-written, mockgen-shaped fake for xdlock.Store. A real
// Redis (even miniredis) can't be told to fail a single call on demand
// without races against its own goroutines, so driving OperationError and
// breaker-open paths needs a fake whose every call is an explicit
// expectation. Shaped like go.uber.org/mock's generated output (EXPECT()
// recorder, gomock.Call chaining) so it composes with the same matchers
// (gomock.Any(), .Times(), .Return()) a generated mock would.
type MockStore struct {
	ctrl     *gomock.Controller
	recorder *MockStoreMockRecorder
}

type MockStoreMockRecorder struct {
	mock *MockStore
}

func NewMockStore(ctrl *gomock.Controller) *MockStore {
	m := &MockStore{ctrl: ctrl}
	m.recorder = &MockStoreMockRecorder{mock: m}
	return m
}

func (m *MockStore) EXPECT() *MockStoreMockRecorder { return m.recorder }

func (m *MockStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetIfAbsent", ctx, key, value, ttl)
	ok, _ := ret[0].(bool)
	err, _ := ret[1].(error)
	return ok, err
}

func (mr *MockStoreMockRecorder) SetIfAbsent(ctx, key, value, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetIfAbsent", reflect.TypeOf((*MockStore)(nil).SetIfAbsent), ctx, key, value, ttl)
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, key)
	v, _ := ret[0].(string)
	ok, _ := ret[1].(bool)
	err, _ := ret[2].(error)
	return v, ok, err
}

func (mr *MockStoreMockRecorder) Get(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockStore)(nil).Get), ctx, key)
}

func (m *MockStore) Delete(ctx context.Context, key string) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, key)
	n, _ := ret[0].(int64)
	err, _ := ret[1].(error)
	return n, err
}

func (mr *MockStoreMockRecorder) Delete(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockStore)(nil).Delete), ctx, key)
}

func (m *MockStore) DeleteIfMatch(ctx context.Context, key, value string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteIfMatch", ctx, key, value)
	ok, _ := ret[0].(bool)
	err, _ := ret[1].(error)
	return ok, err
}

func (mr *MockStoreMockRecorder) DeleteIfMatch(ctx, key, value any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteIfMatch", reflect.TypeOf((*MockStore)(nil).DeleteIfMatch), ctx, key, value)
}

func (m *MockStore) ExtendIfMatch(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ExtendIfMatch", ctx, key, value, ttl)
	ok, _ := ret[0].(bool)
	err, _ := ret[1].(error)
	return ok, err
}

func (mr *MockStoreMockRecorder) ExtendIfMatch(ctx, key, value, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ExtendIfMatch", reflect.TypeOf((*MockStore)(nil).ExtendIfMatch), ctx, key, value, ttl)
}

func (m *MockStore) AtomicExtend(ctx context.Context, key, value string, minRemainingTTL, newTTL time.Duration) (xdlock.ExtendResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AtomicExtend", ctx, key, value, minRemainingTTL, newTTL)
	res, _ := ret[0].(xdlock.ExtendResult)
	err, _ := ret[1].(error)
	return res, err
}

func (mr *MockStoreMockRecorder) AtomicExtend(ctx, key, value, minRemainingTTL, newTTL any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AtomicExtend", reflect.TypeOf((*MockStore)(nil).AtomicExtend), ctx, key, value, minRemainingTTL, newTTL)
}

func (m *MockStore) Inspect(ctx context.Context, key string) (*xdlock.Entry, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Inspect", ctx, key)
	e, _ := ret[0].(*xdlock.Entry)
	ok, _ := ret[1].(bool)
	err, _ := ret[2].(error)
	return e, ok, err
}

func (mr *MockStoreMockRecorder) Inspect(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Inspect", reflect.TypeOf((*MockStore)(nil).Inspect), ctx, key)
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Ping", ctx)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockStoreMockRecorder) Ping(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Ping", reflect.TypeOf((*MockStore)(nil).Ping), ctx)
}

func (m *MockStore) IsConnected() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsConnected")
	ok, _ := ret[0].(bool)
	return ok
}

func (mr *MockStoreMockRecorder) IsConnected() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsConnected", reflect.TypeOf((*MockStore)(nil).IsConnected))
}

var _ xdlock.Store = (*MockStore)(nil)
