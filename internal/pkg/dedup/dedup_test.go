//go:build unit

package dedup

import (
	"context"
	"testing"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	base := Request{
		MessageType:  domain.MessageTypeSMS,
		Recipient:    "+15550001",
		TemplateCode: "OTP",
		Variables:    map[string]string{"code": "1234", "name": "Tom"},
	}

	testCases := []struct {
		name  string
		other Request
		same  bool
	}{
		{
			name: "变量顺序不同",
			other: Request{
				MessageType:  domain.MessageTypeSMS,
				Recipient:    "+15550001",
				TemplateCode: "OTP",
				Variables:    map[string]string{"name": "Tom", "code": "1234"},
			},
			same: true,
		},
		{
			name: "接收者大小写和空白不同",
			other: Request{
				MessageType:  domain.MessageTypeSMS,
				Recipient:    " +15550001 ",
				TemplateCode: "OTP",
				Variables:    map[string]string{"code": "1234", "name": "Tom"},
			},
			same: true,
		},
		{
			name: "变量值不同",
			other: Request{
				MessageType:  domain.MessageTypeSMS,
				Recipient:    "+15550001",
				TemplateCode: "OTP",
				Variables:    map[string]string{"code": "5678", "name": "Tom"},
			},
			same: false,
		},
		{
			name: "模板大小写不同",
			other: Request{
				MessageType:  domain.MessageTypeSMS,
				Recipient:    "+15550001",
				TemplateCode: "otp",
				Variables:    map[string]string{"code": "1234", "name": "Tom"},
			},
			same: false,
		},
		{
			name: "消息类型不同",
			other: Request{
				MessageType:  domain.MessageTypeEmail,
				Recipient:    "+15550001",
				TemplateCode: "OTP",
				Variables:    map[string]string{"code": "1234", "name": "Tom"},
			},
			same: false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.same, Key(base) == Key(tc.other))
		})
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testRequest() Request {
	return Request{
		MessageType:  domain.MessageTypeSMS,
		Recipient:    "+15550001",
		TemplateCode: "OTP",
		Variables:    map[string]string{"code": "1234"},
	}
}

func TestLocalGuard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := NewLocalGuard(5*time.Minute, time.Minute)
	g.now = clock.Now
	req := testRequest()

	dup, err := g.IsDuplicate(ctx, req)
	require.NoError(t, err)
	assert.False(t, dup)

	require.NoError(t, g.Record(ctx, req))
	dup, err = g.IsDuplicate(ctx, req)
	require.NoError(t, err)
	assert.True(t, dup)

	clock.Advance(5*time.Minute + time.Second)
	dup, err = g.IsDuplicate(ctx, req)
	require.NoError(t, err)
	assert.False(t, dup)

	stats := g.Stats()
	assert.Equal(t, domain.DedupStats{TotalKeys: 1, ActiveKeys: 0, ExpiredKeys: 1, WindowMinutes: 5}, stats)
}

func TestLocalGuard_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewLocalGuard(time.Minute, time.Minute)
	req := testRequest()
	require.NoError(t, g.Record(ctx, req))
	require.NoError(t, g.Clear(ctx, req))

	dup, err := g.IsDuplicate(ctx, req)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, 0, g.Stats().TotalKeys)
}

func TestRedisGuard(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := NewRedisGuard(client, 5*time.Minute)
	g.now = clock.Now
	req := testRequest()

	dup, err := g.IsDuplicate(ctx, req)
	require.NoError(t, err)
	assert.False(t, dup)

	require.NoError(t, g.Record(ctx, req))
	assert.Equal(t, 10*time.Minute, mr.TTL(g.key(req)))

	dup, err = g.IsDuplicate(ctx, req)
	require.NoError(t, err)
	assert.True(t, dup)

	clock.Advance(6 * time.Minute)
	dup, err = g.IsDuplicate(ctx, req)
	require.NoError(t, err)
	assert.False(t, dup)

	require.NoError(t, g.Clear(ctx, req))
	assert.False(t, mr.Exists(g.key(req)))
}

func TestRedisGuard_BadValue(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g := NewRedisGuard(client, time.Minute)
	req := testRequest()
	require.NoError(t, mr.Set(g.key(req), "not-a-number"))

	_, err := g.IsDuplicate(context.Background(), req)
	assert.Error(t, err)
}
