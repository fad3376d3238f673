package controller

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func TestIsPhotoMessage(t *testing.T) {
	assert.False(t, isPhotoMessage(&models.Update{}))
	assert.False(t, isPhotoMessage(&models.Update{Message: &models.Message{Text: "hi"}}))
	assert.True(t, isPhotoMessage(&models.Update{Message: &models.Message{
		Caption: "Как поправить свет?",
		Photo:   []models.PhotoSize{{FileID: "f"}},
	}}))
}
