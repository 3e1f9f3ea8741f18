package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/tracing"
	"cv-agent-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var qdrantTracer = otel.Tracer("cv-agent-go/storage/qdrant")

// QdrantPointIDNamespace 由文档 ID 生成确定性的 Qdrant point ID
var QdrantPointIDNamespace = uuid.Must(uuid.FromString("fd6c72c2-5a33-4b53-8e7c-8298f3f5a7e1"))

const (
	payloadDocID   = "doc_id"
	payloadOwnerID = "owner_id"
	payloadText    = "text"
)

// Qdrant 基于 Qdrant HTTP API 的简历文档索引。每个文档带 owner_id，检索按 owner 过滤。
// 写操作（Add/Delete）互斥，检索持读锁；写入后对检索的可见性是最终一致的。
type Qdrant struct {
	endpoint       string
	collectionName string
	vectorSize     int
	distanceMetric string
	apiKey         string
	httpClient     *http.Client
	embedder       embedding.Embedder
	logger         zerolog.Logger

	mu sync.RWMutex
}

// QdrantOption 定义Qdrant构造函数选项
type QdrantOption func(*Qdrant)

// WithDistanceMetric 设置距离度量
func WithDistanceMetric(metric string) QdrantOption {
	return func(q *Qdrant) {
		q.distanceMetric = metric
	}
}

// WithHttpTimeout 设置HTTP客户端超时
func WithHttpTimeout(timeout time.Duration) QdrantOption {
	return func(q *Qdrant) {
		q.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithQdrantLogger 设置日志记录器
func WithQdrantLogger(logger zerolog.Logger) QdrantOption {
	return func(q *Qdrant) {
		q.logger = logger
	}
}

// NewQdrant 创建文档索引并确保集合存在
func NewQdrant(cfg *config.QdrantConfig, embedder embedding.Embedder, opts ...QdrantOption) (*Qdrant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("qdrant配置不能为空")
	}
	if embedder == nil {
		return nil, fmt.Errorf("qdrant索引需要向量化模型")
	}
	q := &Qdrant{
		endpoint:       strings.TrimRight(cfg.Endpoint, "/"),
		collectionName: cfg.Collection,
		vectorSize:     cfg.Dimension,
		distanceMetric: "Cosine",
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		embedder:       embedder,
		logger:         log.Logger.With().Str("component", "qdrant").Logger(),
	}
	if q.endpoint == "" {
		q.endpoint = "http://localhost:6333"
	}
	if q.collectionName == "" {
		q.collectionName = "cvs"
	}
	if q.vectorSize <= 0 {
		q.vectorSize = 1024
	}
	for _, opt := range opts {
		opt(q)
	}

	if err := q.ensureCollectionExists(context.Background()); err != nil {
		return nil, fmt.Errorf("确保集合 '%s' 存在失败: %w", q.collectionName, err)
	}
	q.logger.Info().Str("endpoint", q.endpoint).Str("collection", q.collectionName).Msg("Qdrant索引已就绪")
	return q, nil
}

// PointID 文档 ID 对应的 point ID
func PointID(docID string) string {
	return uuid.NewV5(QdrantPointIDNamespace, docID).String()
}

func (q *Qdrant) ensureCollectionExists(ctx context.Context) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	status, err := q.doRequest(ctx, http.MethodGet, "/collections/"+q.collectionName, nil, &info)
	if status == http.StatusNotFound {
		q.logger.Info().Str("collection", q.collectionName).Msg("集合不存在，将创建新集合")
		return q.createCollection(ctx)
	}
	if err != nil {
		return fmt.Errorf("检查集合失败: %w", err)
	}

	size := info.Result.Config.Params.Vectors.Size
	distance := info.Result.Config.Params.Vectors.Distance
	if size != q.vectorSize || distance != q.distanceMetric {
		q.logger.Warn().
			Int("existing_size", size).Str("existing_distance", distance).
			Int("expected_size", q.vectorSize).Str("expected_distance", q.distanceMetric).
			Msg("现有集合配置与当前配置不匹配")
	}
	return nil
}

func (q *Qdrant) createCollection(ctx context.Context) error {
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.vectorSize,
			"distance": q.distanceMetric,
		},
	}
	if _, err := q.doRequest(ctx, http.MethodPut, "/collections/"+q.collectionName, body, nil); err != nil {
		return fmt.Errorf("创建集合失败: %w", err)
	}
	return nil
}

// Add 向量化文本并写入 owner 名下；id 为空时生成新 ID
func (q *Qdrant) Add(ctx context.Context, ownerID, text, id string) (string, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.Add", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if id == "" {
		newID, err := uuid.NewV4()
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeInternal)
			return "", fmt.Errorf("生成文档ID失败: %w", err)
		}
		id = newID.String()
	}
	span.SetAttributes(
		attribute.String("db.collection", q.collectionName),
		attribute.String("doc.id", id),
		attribute.String("doc.preview", tracing.SafeCVContent(text)),
	)

	vector, err := q.embed(ctx, text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return "", err
	}

	body := map[string]interface{}{
		"points": []map[string]interface{}{{
			"id":     PointID(id),
			"vector": vector,
			"payload": map[string]interface{}{
				payloadDocID:   id,
				payloadOwnerID: ownerID,
				payloadText:    text,
			},
		}},
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", q.collectionName), body, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return "", fmt.Errorf("写入向量失败: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return id, nil
}

// Delete 删除文档，不存在时视为成功
func (q *Qdrant) Delete(ctx context.Context, id string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.Delete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("doc.id", id)))
	defer span.End()

	body := map[string]interface{}{"points": []string{PointID(id)}}

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collectionName), body, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("删除向量失败: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Search 返回 owner 名下与 query 最相近的 k 个文档，按距离升序。
// ownerID 为空时不过滤，仅供命令行等单用户场景使用
func (q *Qdrant) Search(ctx context.Context, ownerID, query string, k int) ([]types.IndexedDocument, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.Search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("search.limit", k)))
	defer span.End()

	if k <= 0 {
		return []types.IndexedDocument{}, nil
	}
	vector, err := q.embed(ctx, query)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, err
	}

	var result struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if ownerID != "" {
		body["filter"] = ownerFilter(ownerID)
	}

	q.mu.RLock()
	_, err = q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", q.collectionName), body, &result)
	q.mu.RUnlock()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, fmt.Errorf("检索向量失败: %w", err)
	}

	docs := make([]types.IndexedDocument, 0, len(result.Result))
	for _, p := range result.Result {
		doc := types.IndexedDocument{ID: fmt.Sprint(p.ID), Distance: q.distance(p.Score)}
		if v, ok := p.Payload[payloadDocID].(string); ok {
			doc.ID = v
		}
		if v, ok := p.Payload[payloadText].(string); ok {
			doc.Text = v
		}
		docs = append(docs, doc)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Distance < docs[j].Distance })

	span.SetAttributes(attribute.Int("search.results.count", len(docs)))
	span.SetStatus(codes.Ok, "")
	return docs, nil
}

func ownerFilter(ownerID string) map[string]interface{} {
	return map[string]interface{}{
		"must": []map[string]interface{}{{
			"key":   payloadOwnerID,
			"match": map[string]interface{}{"value": ownerID},
		}},
	}
}

// distance Qdrant 对 Cosine/Dot 返回相似度，对 Euclid 返回距离
func (q *Qdrant) distance(score float64) float64 {
	switch q.distanceMetric {
	case "Euclid", "Manhattan":
		return score
	default:
		return 1 - score
	}
}

func (q *Qdrant) embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := q.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("文本向量化失败: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("向量化结果数量异常: %d", len(vectors))
	}
	if len(vectors[0]) != q.vectorSize {
		return nil, fmt.Errorf("向量维度(%d)与配置维度(%d)不匹配", len(vectors[0]), q.vectorSize)
	}
	return vectors[0], nil
}

// doRequest 发送请求并解析响应，返回 HTTP 状态码（网络错误时为 0）
func (q *Qdrant) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) (int, error) {
	ctx, span := qdrantTracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("net.peer.name", q.endpoint),
			attribute.String("db.system", "qdrant"),
		))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeInternal)
			return 0, fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(payload)
		span.SetAttributes(attribute.Int("http.request.body.size", len(payload)))
	}

	req, err := http.NewRequestWithContext(ctx, method, q.endpoint+path, reader)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return 0, fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := q.httpClient.Do(req)
	if err != nil {
		errType := tracing.ErrorTypeHTTP
		if errors.Is(err, context.DeadlineExceeded) {
			errType = tracing.ErrorTypeTimeout
		}
		tracing.RecordError(span, err, errType)
		return 0, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return resp.StatusCode, fmt.Errorf("读取响应失败: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("qdrant API错误: status=%d, body=%s", resp.StatusCode, tracing.TruncateString(string(respBody), tracing.DefaultMaxLength))
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return resp.StatusCode, err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return resp.StatusCode, fmt.Errorf("解析响应失败: %w", err)
		}
	}
	span.SetStatus(codes.Ok, "")
	return resp.StatusCode, nil
}
