package wordpair_test

import (
	"context"
	"errors"
	"testing"

	"github.com/KirkDiggler/impostor/internal/ai"
	aimocks "github.com/KirkDiggler/impostor/internal/ai/mocks"
	randommocks "github.com/KirkDiggler/impostor/internal/common/random/mocks"
	"github.com/KirkDiggler/impostor/internal/services/wordpair"
	"github.com/KirkDiggler/impostor/internal/services/wordpair/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type WordPairTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockAI     *aimocks.MockProvider
	mockRandom *randommocks.MockSource
	ctx        context.Context
}

func (s *WordPairTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAI = aimocks.NewMockProvider(s.ctrl)
	s.mockRandom = randommocks.NewMockSource(s.ctrl)
	s.ctx = context.Background()
}

func (s *WordPairTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestWordPairSuite(t *testing.T) {
	suite.Run(t, new(WordPairTestSuite))
}

func (s *WordPairTestSuite) newAI() wordpair.Provider {
	p, err := wordpair.NewAI(&wordpair.AIConfig{Provider: s.mockAI, Model: "test-model"})
	s.Require().NoError(err)
	return p
}

func (s *WordPairTestSuite) TestAI_NormalizesAnswers() {
	gomock.InOrder(
		s.mockAI.EXPECT().Complete(s.ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, req *ai.Request) (string, error) {
				s.Equal("test-model", req.Model)
				s.Equal(0.8, req.Temperature)
				return `"Apple."`, nil
			}),
		s.mockAI.EXPECT().Complete(s.ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, req *ai.Request) (string, error) {
				s.Contains(req.Prompt, "'apple'")
				s.Equal(0.9, req.Temperature)
				return "  Orange juice\n", nil
			}),
	)

	pair, err := s.newAI().GenerateWordPair(s.ctx)
	s.Require().NoError(err)
	s.Equal("apple", pair.Main)
	s.Equal("orange", pair.Decoy)
}

func (s *WordPairTestSuite) TestAI_SameWordIsDegenerate() {
	s.mockAI.EXPECT().Complete(s.ctx, gomock.Any()).Return("Cat", nil)
	s.mockAI.EXPECT().Complete(s.ctx, gomock.Any()).Return("cat!", nil)

	_, err := s.newAI().GenerateWordPair(s.ctx)
	s.ErrorIs(err, wordpair.ErrDegeneratePair)
}

func (s *WordPairTestSuite) TestAI_EmptyMainWordSkipsSecondCall() {
	s.mockAI.EXPECT().Complete(s.ctx, gomock.Any()).Return(`""`, nil)

	_, err := s.newAI().GenerateWordPair(s.ctx)
	s.ErrorIs(err, wordpair.ErrDegeneratePair)
}

func (s *WordPairTestSuite) TestAI_TransportError() {
	boom := errors.New("connection refused")
	s.mockAI.EXPECT().Complete(s.ctx, gomock.Any()).Return("", boom)

	_, err := s.newAI().GenerateWordPair(s.ctx)
	s.ErrorIs(err, boom)
	s.NotErrorIs(err, wordpair.ErrDegeneratePair)
}

func (s *WordPairTestSuite) TestStatic_PicksFromPool() {
	pool := []wordpair.WordPair{
		{Main: "sun", Decoy: "moon"},
		{Main: "cat", Decoy: "dog"},
	}
	p, err := wordpair.NewStatic(&wordpair.StaticConfig{Pairs: pool, Random: s.mockRandom})
	s.Require().NoError(err)

	s.mockRandom.EXPECT().Intn(2).Return(1)

	pair, err := p.GenerateWordPair(s.ctx)
	s.Require().NoError(err)
	s.Equal("cat", pair.Main)
	s.Equal("dog", pair.Decoy)
}

func (s *WordPairTestSuite) TestStatic_RejectsDegeneratePool() {
	_, err := wordpair.NewStatic(&wordpair.StaticConfig{
		Pairs:  []wordpair.WordPair{{Main: "Sun", Decoy: "sun"}},
		Random: s.mockRandom,
	})
	s.Error(err)

	_, err = wordpair.NewStatic(&wordpair.StaticConfig{})
	s.Error(err)
}

func (s *WordPairTestSuite) TestStatic_DefaultPoolIsValid() {
	for _, pair := range wordpair.DefaultPairs {
		s.True(pair.Valid(), "%s/%s", pair.Main, pair.Decoy)
	}
}

func (s *WordPairTestSuite) TestFallback() {
	primary := mocks.NewMockProvider(s.ctrl)
	secondary := mocks.NewMockProvider(s.ctrl)

	p, err := wordpair.NewFallback(&wordpair.FallbackConfig{
		Primary:   primary,
		Secondary: secondary,
		Logger:    zerolog.Nop(),
	})
	s.Require().NoError(err)

	primary.EXPECT().GenerateWordPair(s.ctx).Return(&wordpair.WordPair{Main: "sun", Decoy: "moon"}, nil)
	pair, err := p.GenerateWordPair(s.ctx)
	s.Require().NoError(err)
	s.Equal("sun", pair.Main)

	primary.EXPECT().GenerateWordPair(s.ctx).Return(nil, wordpair.ErrDegeneratePair)
	secondary.EXPECT().GenerateWordPair(gomock.Any()).Return(&wordpair.WordPair{Main: "cat", Decoy: "dog"}, nil)
	pair, err = p.GenerateWordPair(s.ctx)
	s.Require().NoError(err)
	s.Equal("cat", pair.Main)
}
