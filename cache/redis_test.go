package cache

import (
	"context"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/orogen-io/sideband/iox"
)

func newTestRedis(t *testing.T, cfg RedisConfig) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg.URL = "redis://" + mr.Addr()
	r, err := NewRedis(cfg)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(iox.CloseFunc(r))
	return r
}

func TestRedis_GetAbsentReturnsEmpty(t *testing.T) {
	r := newTestRedis(t, RedisConfig{})

	value, err := r.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(value) != 0 {
		t.Errorf("Get of absent key = %v, want empty", value)
	}
}

func TestRedis_PutThenGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t, RedisConfig{})

	ok, err := r.Put(ctx, "k", []int32{1, -2, 1 << 30})
	if err != nil || !ok {
		t.Fatalf("Put = %v, %v; want true, nil", ok, err)
	}
	value, err := r.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(value, []int32{1, -2, 1 << 30}) {
		t.Errorf("Get = %v, want [1 -2 1073741824]", value)
	}
}

func TestRedis_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t, RedisConfig{})

	if ok, _ := r.Put(ctx, "k", []int32{1, 2, 3}); !ok {
		t.Fatal("first Put refused")
	}
	if ok, _ := r.Put(ctx, "k", []int32{9}); !ok {
		t.Fatal("overwrite Put refused")
	}
	value, err := r.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(value, []int32{9}) {
		t.Errorf("Get after overwrite = %v, want [9]", value)
	}
}

func TestRedis_SizeBoundRefusesPut(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t, RedisConfig{MaxValueInts: 2})

	ok, err := r.Put(ctx, "k", []int32{1, 2, 3})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ok {
		t.Error("Put over size bound accepted, want refusal")
	}
	value, _ := r.Get(ctx, "k")
	if len(value) != 0 {
		t.Errorf("refused key has value %v, want empty", value)
	}
}

func TestRedis_KeyPrefixIsApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(RedisConfig{URL: "redis://" + mr.Addr(), KeyPrefix: "exp:"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(iox.CloseFunc(r))

	if ok, _ := r.Put(context.Background(), "k", []int32{7}); !ok {
		t.Fatal("Put refused")
	}
	if !mr.Exists("exp:k") {
		t.Error("key not stored under configured prefix")
	}
}
