package service

import "errors"

var errEmptyCommand = errors.New("command is required")

// CommandSender delivers a built command to the transport.
type CommandSender interface {
	Publish(deviceID, commandType string, value any) error
}

type CommandService struct {
	publisher CommandSender
}

func NewCommandService(pub CommandSender) *CommandService {
	return &CommandService{publisher: pub}
}

// Send validates and forwards one control command. Transport failures come
// back to the caller untouched so the HTTP layer can map them.
func (s *CommandService) Send(deviceID, commandType string, value any) error {
	if commandType == "" {
		return errEmptyCommand
	}
	return s.publisher.Publish(deviceID, commandType, value)
}
