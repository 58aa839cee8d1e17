package model

import "errors"

// ErrNoInputs возвращается при попытке отправить заказ без входных файлов.
var ErrNoInputs = errors.New("order has no inputs")

// OrderParams описывает параметры создания заказа, кодируемые в тело POST /orders.
type OrderParams interface {
	Validate() error
}

// Input ссылается на зарегистрированный входной файл по URI из заголовка Location.
type Input struct {
	URI string `json:"uri"`
}

// CaptionOptions содержит входные файлы и форматы субтитров заказа.
type CaptionOptions struct {
	Inputs            []Input  `json:"inputs"`
	OutputFileFormats []string `json:"output_file_formats"`
}

// CaptionOrderParams описывает заказ на изготовление субтитров.
type CaptionOrderParams struct {
	ClientRef      string         `json:"client_ref,omitempty"`
	Verbatim       bool           `json:"verbatim"`
	Timestamps     bool           `json:"timestamps"`
	CaptionOptions CaptionOptions `json:"caption_options"`
}

// NewCaptionOrderParams создаёт параметры заказа со значениями по умолчанию: без verbatim, с таймкодами.
func NewCaptionOrderParams(inputs []Input, outputFileFormats []string) CaptionOrderParams {
	return CaptionOrderParams{
		Timestamps: true,
		CaptionOptions: CaptionOptions{
			Inputs:            inputs,
			OutputFileFormats: outputFileFormats,
		},
	}
}

// Validate проверяет, что заказ содержит хотя бы один входной файл.
func (p CaptionOrderParams) Validate() error {
	if len(p.CaptionOptions.Inputs) == 0 {
		return ErrNoInputs
	}
	return nil
}
