package bindkit_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bindkit/bindkit"
	"github.com/bindkit/bindkit/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type ConcurrentTestSuite struct {
	suite.Suite
}

func (s *ConcurrentTestSuite) TestConcurrentSingletonFirstUse() {
	root := bindkit.New(bindkit.Config{})
	defer root.Close()

	var built atomic.Uint64
	s.Require().NoError(bindkit.BindSingleton[*mock.Counter](root, mock.CountingRecipe(&built)))

	const workers = 32
	results := make([]*mock.Counter, workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			c, err := bindkit.ResolveAs[*mock.Counter](root)
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}
	s.NoError(g.Wait())

	s.Equal(uint64(1), built.Load(), "factory must run exactly once under race")
	for i := 1; i < workers; i++ {
		s.Same(results[0], results[i])
	}
}

func (s *ConcurrentTestSuite) TestConcurrentUnscopedResolution() {
	root := bindkit.New(bindkit.Config{})
	defer root.Close()

	s.Require().NoError(bindkit.Bind[mock.Database](root, mock.DBRecipe()))
	s.Require().NoError(bindkit.Bind[mock.Cache](root, mock.CacheRecipe()))

	var wg sync.WaitGroup
	errs := make(chan error, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache, err := bindkit.ResolveAs[mock.Cache](root)
			if err != nil {
				errs <- err
				return
			}
			if cache.(*mock.MockCache).DB == nil {
				errs <- &bindkit.NullProvidedError{Key: bindkit.KeyFor[mock.Database]()}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}
}

func (s *ConcurrentTestSuite) TestConcurrentSynthesis() {
	root := bindkit.New(bindkit.Config{
		Recipes: bindkit.RecipeSourceFunc(func(bindkit.Key) (bindkit.Recipe, bool) {
			return mock.DBRecipe(), true
		}),
	})
	defer root.Close()

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			db, err := bindkit.ResolveAs[mock.Database](root)
			if err != nil {
				return err
			}
			if !db.Ping() {
				return &bindkit.MissingBindingError{Key: bindkit.KeyFor[mock.Database]()}
			}
			return nil
		})
	}
	s.NoError(g.Wait())
}

func (s *ConcurrentTestSuite) TestConcurrentScopesWithSharedSingleton() {
	root := bindkit.New(bindkit.Config{})
	defer root.Close()

	var built atomic.Uint64
	s.Require().NoError(bindkit.BindSingleton[*mock.Counter](root, mock.CountingRecipe(&built)))

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			child, err := root.Child()
			if err != nil {
				return err
			}
			defer child.Close()
			if err := bindkit.BindInstance[mock.Database](child, &mock.MockDB{Connected: true}); err != nil {
				return err
			}
			if _, err := bindkit.ResolveAs[*mock.Counter](child); err != nil {
				return err
			}
			_, err = bindkit.ResolveAs[mock.Database](child)
			return err
		})
	}
	s.NoError(g.Wait())
	s.Equal(uint64(1), built.Load())
}

func TestConcurrentSuite(t *testing.T) {
	suite.Run(t, new(ConcurrentTestSuite))
}
