package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
)

// encodeForm はFormをmultipart/form-dataにエンコードする。
func encodeForm(form *Form) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, values := range form.Fields {
		for _, v := range values {
			if err := w.WriteField(field, v); err != nil {
				return nil, "", fmt.Errorf("フォームフィールドの書き込みに失敗しました: %w", err)
			}
		}
	}

	for _, file := range form.Files {
		part, err := w.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("フォームファイルの作成に失敗しました: %w", err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("フォームファイルの書き込みに失敗しました: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipartの終端に失敗しました: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
