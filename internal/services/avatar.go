package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

const avatarSize = 512

var defaultAvatarColors = []color.NRGBA{
	{R: 0x8D, G: 0x6E, B: 0x63, A: 0xFF},
	{R: 0x5D, G: 0x40, B: 0x37, A: 0xFF},
	{R: 0x45, G: 0x5A, B: 0x64, A: 0xFF},
	{R: 0x6D, G: 0x4C, B: 0x41, A: 0xFF},
	{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF},
}

// AvatarService draws the initials avatar a user gets on registration.
type AvatarService interface {
	CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error
	GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	bucketService BucketService
	bgColors      []color.NRGBA
	fontFace      font.Face
}

// NewAvatarService loads the font from AVATAR_FONT and the palette from
// AVATAR_COLORS_JSON_PATH. A missing palette falls back to a built-in one.
func NewAvatarService(log *logger.Logger, bucketService BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := utils.GetEnv("AVATAR_FONT", "", serviceLog)
	if fontPath == "" {
		return nil, fmt.Errorf("env var AVATAR_FONT is empty")
	}
	serviceLog.Info("Loading avatar font from TTF file", "font", fontPath)
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	bgColors := defaultAvatarColors
	if colorsPath := utils.GetEnv("AVATAR_COLORS_JSON_PATH", "", serviceLog); colorsPath != "" {
		serviceLog.Info("Loading avatar colors from JSON file", "path", colorsPath)
		loaded, err := loadColorsFromFile(colorsPath)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) > 0 {
			bgColors = loaded
		}
	}
	return newAvatarService(serviceLog, bucketService, bgColors, face), nil
}

func newAvatarService(log *logger.Logger, bucketService BucketService, bgColors []color.NRGBA, face font.Face) *avatarService {
	if len(bgColors) == 0 {
		bgColors = defaultAvatarColors
	}
	return &avatarService{log: log, bucketService: bucketService, bgColors: bgColors, fontFace: face}
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error {
	buf, err := as.GenerateUserAvatar(user)
	if err != nil {
		return err
	}
	bucketKey := fmt.Sprintf("user_avatars/%s.png", user.ID.String())
	if err := as.bucketService.UploadFile(ctx, bucketKey, bytes.NewReader(buf.Bytes()), "image/png"); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}
	user.AvatarBucketKey = bucketKey
	user.AvatarURL = as.bucketService.GetPublicURL(bucketKey)
	return nil
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	dc := gg.NewContext(avatarSize, avatarSize)

	// round avatar
	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.Clip()

	dc.SetColor(as.bgColors[rand.Intn(len(as.bgColors))])
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName)
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, avatarSize/2, avatarSize/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

//----------------------------------------------------------------------------------------
// Helpers
//----------------------------------------------------------------------------------------

func computeInitials(first, last string) string {
	return initial(first) + initial(last)
}

func initial(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r))
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var colors []color.NRGBA
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	return colors, nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
