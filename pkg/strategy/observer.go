package strategy

import "github.com/raykavin/smarttrades/pkg/core"

// Observer receives state machine events, metrics collectors implement it
type Observer interface {
	OnRoundOpened(session core.Session)
	OnTransition(session core.Session, transition Transition)
	OnLegFailure(instrument string)
	OnFetchError(instrument string)
}

type nopObserver struct{}

func (nopObserver) OnRoundOpened(core.Session)             {}
func (nopObserver) OnTransition(core.Session, Transition) {}
func (nopObserver) OnLegFailure(string)                    {}
func (nopObserver) OnFetchError(string)                    {}
