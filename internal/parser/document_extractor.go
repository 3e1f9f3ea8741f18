package parser

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	einopdf "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultExtractTimeout = 30 * time.Second

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTab          = regexp.MustCompile(`<w:tab/>|<w:br/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	docxHyperlink    = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// DocumentExtractor 从上传的简历文件中提取纯文本和超链接。
// 支持 pdf、docx、txt/md；任何失败都返回空文本，不向上抛出错误。
type DocumentExtractor struct {
	pdfParser *einopdf.PDFParser
	timeout   time.Duration
	logger    zerolog.Logger
}

// DocumentExtractorOption 提取器选项
type DocumentExtractorOption func(*DocumentExtractor)

// WithExtractorLogger 配置日志记录器
func WithExtractorLogger(logger zerolog.Logger) DocumentExtractorOption {
	return func(e *DocumentExtractor) {
		e.logger = logger
	}
}

// WithExtractTimeout 配置单个文件的解析超时
func WithExtractTimeout(d time.Duration) DocumentExtractorOption {
	return func(e *DocumentExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewDocumentExtractor 初始化文档提取器。PDF 不按页面分割，整份文档作为一个字符串。
func NewDocumentExtractor(ctx context.Context, opts ...DocumentExtractorOption) (*DocumentExtractor, error) {
	p, err := einopdf.NewPDFParser(ctx, &einopdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}
	e := &DocumentExtractor{
		pdfParser: p,
		timeout:   defaultExtractTimeout,
		logger:    log.Logger.With().Str("component", "document_extractor").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract 按文件扩展名选择解析方式
func (e *DocumentExtractor) Extract(ctx context.Context, filename string, data []byte) (string, []string) {
	start := time.Now()
	text, links, err := e.extract(ctx, filename, data)
	if err != nil {
		e.logger.Warn().Err(err).Str("filename", filename).Msg("文档文本提取失败")
		return "", nil
	}
	e.logger.Debug().
		Str("filename", filename).
		Int("text_length", len(text)).
		Int("link_count", len(links)).
		Dur("duration", time.Since(start)).
		Msg("文档文本提取完成")
	return strings.TrimSpace(text), links
}

func (e *DocumentExtractor) extract(ctx context.Context, filename string, data []byte) (string, []string, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("文件内容为空")
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(ctx, filename, data)
	case ".docx":
		return extractDocx(data)
	case ".txt", ".md", "":
		return string(bytes.ToValidUTF8(data, nil)), nil, nil
	default:
		return "", nil, fmt.Errorf("不支持的文件类型: %s", filepath.Ext(filename))
	}
}

// extractPDF 文本优先用 eino 解析器，失败或为空时退回逐页纯文本；超链接从页面注释中读取
func (e *DocumentExtractor) extractPDF(ctx context.Context, uri string, data []byte) (string, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var text string
	docs, err := e.pdfParser.Parse(ctx, bytes.NewReader(data), einoParser.WithURI(uri))
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Msg("eino PDF解析失败，尝试逐页提取")
	} else {
		var sb strings.Builder
		for i, doc := range docs {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(doc.Content)
		}
		text = sb.String()
	}

	reader, rerr := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		if strings.TrimSpace(text) == "" {
			return "", nil, fmt.Errorf("读取PDF失败: %w", rerr)
		}
		return text, nil, nil
	}
	if strings.TrimSpace(text) == "" {
		text = plainTextPages(reader)
	}
	return text, pdfLinks(reader), nil
}

func plainTextPages(r *lpdf.Reader) string {
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String()
}

// pdfLinks 收集所有页面 Link 注释里的 URI，按出现顺序去重
func pdfLinks(r *lpdf.Reader) []string {
	seen := make(map[string]struct{})
	var links []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		annots := page.V.Key("Annots")
		for j := 0; j < annots.Len(); j++ {
			uri := annots.Index(j).Key("A").Key("URI")
			if uri.IsNull() {
				continue
			}
			link := strings.TrimSpace(uri.RawString())
			if link == "" {
				continue
			}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	return links
}

// extractDocx 读取 document.xml，段落结束转换为换行后去掉所有标签
func extractDocx(data []byte) (string, []string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("解析docx失败: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	links := docxHyperlink.FindAllString(content, -1)
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, " ")
	content = xmlTag.ReplaceAllString(content, "")
	return unescapeXML(content), links, nil
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
