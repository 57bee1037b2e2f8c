package application

import "context"

// AudioSource yields one recorded clip per NextClip call.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextClip(ctx context.Context) ([]byte, error)
	Name() string
}
