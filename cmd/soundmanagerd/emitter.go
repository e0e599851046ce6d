package main

import (
	l "github.com/sirupsen/logrus"

	"gitlab.com/fidelxyz/soundmanager/internal/emitter"
)

// stdoutEmitter is the Emitter used by `serve`: it just logs every
// notification, standing in for a real UI bridge.
type stdoutEmitter struct{}

func (stdoutEmitter) OnFilesUpdated(immediate bool) {
	l.WithField("immediate", immediate).Info("files updated")
}

func (stdoutEmitter) OnPlayerStateUpdated(state emitter.PlayerState) {
	l.WithFields(l.Fields{"playing": state.Playing, "pos": state.Pos}).Info("player state updated")
}
