package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fines/internal/cache"
	"fines/internal/core"
	"fines/internal/storage/memory"
)

type countingDirectory struct {
	*memory.Store
	calls int
	err   error
}

func (d *countingDirectory) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	d.calls++
	if d.err != nil {
		return false, d.err
	}
	return d.Store.IsAdmin(ctx, userID)
}

type ResolverSuite struct {
	suite.Suite
	ctx context.Context
	dir *countingDirectory
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = &countingDirectory{Store: memory.New(nil)}
	s.Require().NoError(s.dir.AddAdmin(s.ctx, core.Admin{UserID: 100, Username: "deputy"}))
}

func (s *ResolverSuite) TestStaticAllowList() {
	r := NewResolver(nil, NewStaticProvider([]int64{1, 2}))

	role, err := r.Resolve(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(Admin, role)

	role, err = r.Resolve(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(Viewer, role)
}

func (s *ResolverSuite) TestDirectoryGrantsAdmin() {
	r := NewResolver(nil, NewStaticProvider([]int64{1}), NewDirectoryProvider(s.dir, 0))

	role, err := r.Resolve(s.ctx, 100)
	s.Require().NoError(err)
	s.True(role.IsAdmin())
}

func (s *ResolverSuite) TestStaticShortCircuitsDirectory() {
	r := NewResolver(nil, NewStaticProvider([]int64{1}), NewDirectoryProvider(s.dir, 0))

	_, err := r.Resolve(s.ctx, 1)
	s.Require().NoError(err)
	s.Zero(s.dir.calls)
}

func (s *ResolverSuite) TestDirectoryCachesAnswers() {
	p := NewDirectoryProvider(s.dir, time.Hour)

	for i := 0; i < 3; i++ {
		ok, err := p.IsAdmin(s.ctx, 100)
		s.Require().NoError(err)
		s.True(ok)
	}
	s.Equal(1, s.dir.calls)
}

func (s *ResolverSuite) TestExpiredAnswersAreSweptAndRefetched() {
	p := NewDirectoryProvider(s.dir, time.Millisecond)

	_, err := p.IsAdmin(s.ctx, 100)
	s.Require().NoError(err)
	time.Sleep(5 * time.Millisecond)

	s.Equal(1, p.CleanExpired())
	_, err = p.IsAdmin(s.ctx, 100)
	s.Require().NoError(err)
	s.Equal(2, s.dir.calls)
}

func (s *ResolverSuite) TestUncachedProviderSurvivesCleanupManager() {
	p := NewDirectoryProvider(s.dir, 0)
	s.Equal(0, p.CleanExpired())

	m := cache.NewManager(nil)
	m.Register(p)
	m.StartCleanup(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	m.Stop()

	ok, err := p.IsAdmin(s.ctx, 100)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ResolverSuite) TestProviderFailureFailsClosed() {
	s.dir.err = errors.New("database is locked")
	r := NewResolver(nil, NewStaticProvider(nil), NewDirectoryProvider(s.dir, 0))

	role, err := r.Resolve(s.ctx, 100)
	s.Require().Error(err)
	s.ErrorIs(err, s.dir.err)
	s.Equal(Viewer, role)
}

func (s *ResolverSuite) TestStaticStillWinsWhenDirectoryFails() {
	s.dir.err = errors.New("database is locked")
	r := NewResolver(nil, NewDirectoryProvider(s.dir, 0), NewStaticProvider([]int64{5}))

	role, err := r.Resolve(s.ctx, 5)
	s.Require().NoError(err)
	s.Equal(Admin, role)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "admin", Admin.String())
	assert.Equal(t, "viewer", Viewer.String())
	require.False(t, Viewer.IsAdmin())
}
