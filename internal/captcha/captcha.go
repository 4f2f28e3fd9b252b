package captcha

import (
	"fmt"

	"github.com/mojocn/base64Captcha"
)

// Символы без визуально неоднозначных пар (0/O, 1/l)
const charSource = "2345678abcdefghjkmnpqrstuvwxyz"

// Renderer интерфейс рендеринга графической капчи
type Renderer interface {
	Render() (code, imageBase64 string, err error)
}

// ImageRenderer рисует искаженный текст на изображении 200x80.
// Код хранится в кэше отдельно от изображения: хранилище
// base64Captcha не используется.
type ImageRenderer struct {
	driver *base64Captcha.DriverString
}

// NewImageRenderer создает новый рендерер капчи
func NewImageRenderer() *ImageRenderer {
	driver := base64Captcha.NewDriverString(
		80, 200, 5,
		base64Captcha.OptionShowHollowLine,
		4,
		charSource,
		nil, nil, nil,
	)
	return &ImageRenderer{driver: driver.ConvertFonts()}
}

// Render генерирует код и изображение с ним в формате base64 data URI
func (r *ImageRenderer) Render() (string, string, error) {
	_, content, answer := r.driver.GenerateIdQuestionAnswer()

	item, err := r.driver.DrawCaptcha(content)
	if err != nil {
		return "", "", fmt.Errorf("failed to draw captcha: %w", err)
	}

	return answer, item.EncodeB64string(), nil
}
