// Package ai generates character portraits with the OpenAI image API.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log/slog"
	"strings"

	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/models"
	"github.com/sashabaranov/go-openai"
)

var ErrNoImage = errors.NewSentinel("no image in response")

// ImageCreator is implemented by [openai.Client].
type ImageCreator interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

type Client struct {
	creator ImageCreator
	logger  *slog.Logger
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	return NewClientWithCreator(openai.NewClient(apiKey), logger)
}

func NewClientWithCreator(creator ImageCreator, logger *slog.Logger) *Client {
	return &Client{
		creator: creator,
		logger:  logger.With(slog.String("source", "ai.Client")),
	}
}

// MugshotPrompt describes a line-up photo of the character. Owned items give the image generator something to
// show in the character's hands.
func MugshotPrompt(character models.CharacterRecord) string {
	sex := "person"
	switch strings.ToUpper(character.Sex) {
	case "F":
		sex = "woman"
	case "M":
		sex = "man"
	}
	prompt := fmt.Sprintf(
		"Police line-up mugshot of a Victorian era %s called %s, front facing, plain height chart background, "+
			"muted sepia colours",
		sex, character.FullName())
	if len(character.ItemsOwned) > 0 {
		names := make([]string, 0, len(character.ItemsOwned))
		for _, item := range character.ItemsOwned {
			names = append(names, strings.ToLower(item.Name))
		}
		prompt += ", holding " + strings.Join(names, " and ")
	}
	return prompt
}

// GenerateMugshot asks DALL-E for a portrait of character and returns it PNG encoded.
func (c *Client) GenerateMugshot(ctx context.Context, character models.CharacterRecord) ([]byte, error) {
	prompt := MugshotPrompt(character)
	response, err := c.creator.CreateImage(ctx, openai.ImageRequest{ //nolint:exhaustruct // this is better for readability
		Model:          openai.CreateImageModelDallE3,
		Prompt:         prompt,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image", slog.String("character", character.Key()))
	}
	if len(response.Data) == 0 {
		return nil, errors.Wrap(ErrNoImage, "create image", slog.String("character", character.Key()))
	}

	imgBytes, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, errors.Wrap(err, "base64 decode")
	}
	// Round trip through the decoder so that only valid PNG files end up on disk.
	img, err := png.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, errors.Wrap(err, "png decode")
	}
	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "png encode")
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "mugshot generated",
		slog.String("character", character.Key()), slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
