package filestore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"example.com/flower-shop/pkg/circuitbreaker"
	"example.com/flower-shop/pkg/config"
	"example.com/flower-shop/pkg/logger"
)

// cloudinaryStore — реализация FileStore поверх Cloudinary REST API.
// Вызовы обёрнуты в circuit breaker: при недоступности хранилища
// запросы отклоняются сразу, не дожидаясь таймаутов.
type cloudinaryStore struct {
	cfg     config.CloudinaryConfig
	client  *http.Client
	breaker *circuitbreaker.Breaker
	baseURL string
}

// NewCloudinary создаёт клиент Cloudinary.
func NewCloudinary(cfg config.CloudinaryConfig) FileStore {
	return &cloudinaryStore{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: circuitbreaker.New("cloudinary"),
		baseURL: fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image", cfg.CloudName),
	}
}

// uploadResponse — ответ Cloudinary на загрузку.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Store загружает файл через Cloudinary upload API.
func (s *cloudinaryStore) Store(ctx context.Context, data []byte, folder, name string) (*UploadResult, error) {
	log := logger.FromContext(ctx)

	fullFolder := s.cfg.BaseFolder
	if folder != "" {
		fullFolder = s.cfg.BaseFolder + "/" + folder
	}

	result, err := circuitbreaker.Execute(ctx, s.breaker, func() (*UploadResult, error) {
		return s.upload(ctx, data, fullFolder, name)
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("folder", fullFolder).
			Str("name", name).
			Msg("Ошибка загрузки файла в хранилище")
		return nil, fmt.Errorf("ошибка загрузки файла: %w", err)
	}

	log.Debug().
		Str("remote_id", result.RemoteID).
		Str("folder", fullFolder).
		Msg("Файл загружен в хранилище")

	return result, nil
}

// upload выполняет один запрос к upload API.
func (s *cloudinaryStore) upload(ctx context.Context, data []byte, folder, name string) (*UploadResult, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"folder":    folder,
		"public_id": name,
		"timestamp": timestamp,
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}

	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField("api_key", s.cfg.APIKey); err != nil {
		return nil, err
	}
	if err := writer.WriteField("signature", s.sign(params)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("хранилище вернуло статус %d: %s", resp.StatusCode, string(payload))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа хранилища: %w", err)
	}

	return &UploadResult{
		URL:      parsed.SecureURL,
		RemoteID: parsed.PublicID,
	}, nil
}

// Delete удаляет файл через destroy API.
// Вызывается и как компенсация после отката транзакции, поэтому
// обязан работать с уже отменённым родительским контекстом.
func (s *cloudinaryStore) Delete(ctx context.Context, remoteID string) error {
	log := logger.FromContext(ctx)

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": remoteID,
		"timestamp": timestamp,
	}

	form := make([]string, 0, 4)
	for k, v := range params {
		form = append(form, k+"="+v)
	}
	form = append(form, "api_key="+s.cfg.APIKey, "signature="+s.sign(params))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/destroy", strings.NewReader(strings.Join(form, "&")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("remote_id", remoteID).Msg("Ошибка удаления файла из хранилища")
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("хранилище вернуло статус %d: %s", resp.StatusCode, string(payload))
	}

	log.Debug().Str("remote_id", remoteID).Msg("Файл удалён из хранилища")
	return nil
}

// sign подписывает параметры запроса по правилам Cloudinary:
// SHA1 от отсортированных пар key=value, соединённых &, плюс api_secret.
func (s *cloudinaryStore) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}
