package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"contractscan/api/handler"
	"contractscan/api/router"
	"contractscan/job"
	"contractscan/logging"
	"contractscan/logic/analyzer"
	"contractscan/logic/chat"
	"contractscan/logic/ingestion/parser"
	"contractscan/logic/ingestion/transform"
	"contractscan/logic/report"
	"contractscan/logic/retrieval"
	"contractscan/service"
	"contractscan/storage/es"
	"contractscan/storage/milvus"
	"contractscan/storage/postgres"
	"contractscan/vars"
)

func main() {
	ctx := context.Background()
	logger := logging.SetDefault()

	// 1. 初始化 DB
	level := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	db, err := postgres.InitDB(postgres.DSN(vars.PGHOST, vars.PGUSER, vars.PGPWD, vars.PGDB, vars.PGPORT), logging.GormLevel(level))
	if err != nil {
		fatal("postgres init failed", err)
	}
	pgRepo := postgres.NewContractRepo(db)

	// 启动定时任务
	c, err := job.StartCronJob(pgRepo, vars.STALE_CRON, vars.STALE_AFTER)
	if err != nil {
		fatal("cron start failed", err)
	}
	defer c.Stop()

	// 2. 初始化 LLM Model, 未配置时走本地分析
	model, err := chat.NewChatModel(ctx, chat.Config{
		Provider: vars.LLM_PROVIDER,
		APIKey:   llmKey(),
		Model:    llmModel(),
		BaseURL:  llmBaseURL(),
		Timeout:  vars.LLM_TIMEOUT,
	})
	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		slog.Warn("no llm configured, using local analysis", "provider", vars.LLM_PROVIDER)
	case err != nil:
		fatal("llm init failed", err)
	}

	pdfParser, err := parser.NewPDFParser(ctx)
	if err != nil {
		fatal("pdf parser init failed", err)
	}

	deps := service.AnalysisDeps{
		Store:    pgRepo,
		Chat:     model,
		Analyzer: analyzer.New(analyzer.WithExchangeRate(vars.USD_TO_INR_RATE)),
		PDF:      pdfParser,
	}

	// 3. 可选的检索存储: ES 关键词 + Milvus 向量
	var keywordSearch, vectorSearch retrieval.ChunkSearcher
	if vars.ES_ENABLED {
		esIndexer, err := es.NewESIndexer(ctx, []string{vars.ESADDR}, vars.ES_INDEX)
		if err != nil {
			fatal("elasticsearch init failed", err)
		}
		deps.Keyword = esIndexer
		keywordSearch = esIndexer
		slog.Info("elasticsearch ready", "addr", vars.ESADDR, "index", esIndexer.Index())
	}
	if vars.MILVUS_ENABLED {
		embedder, err := transform.NewEmbedder(ctx, vars.OLLAMA_PATH, vars.OLLAMA_EMBED_MODEL, 60*time.Second)
		if err != nil {
			fatal("embedder init failed", err)
		}
		store, err := milvus.NewStore(ctx, vars.MILVUSADDR, vars.COLLECTION, embedder)
		if err != nil {
			fatal("milvus init failed", err)
		}
		defer store.Close()
		splitter, err := transform.NewSplitter(ctx, embedder)
		if err != nil {
			fatal("splitter init failed", err)
		}
		deps.Vector = store
		deps.Splitter = splitter
		vectorSearch = store
		slog.Info("milvus ready", "addr", vars.MILVUSADDR, "collection", vars.COLLECTION)
	}
	hybrid, err := retrieval.NewHybrid(ctx, vectorSearch, keywordSearch, nil)
	if err != nil {
		fatal("retriever init failed", err)
	}

	// 4. 初始化 Service (业务层)
	analysisSvc := service.NewAnalysisService(deps)
	conv := analysisSvc.Converter()
	compareSvc := service.NewCompareService(pgRepo, model, conv, vars.LLM_TIMEOUT)
	chatSvc := service.NewChatService(pgRepo, model, hybrid, conv, vars.LLM_TIMEOUT)
	venueSvc := service.NewVenueService(model, vars.LLM_TIMEOUT)
	exportSvc := service.NewExportService(analysisSvc, &report.ChromeRenderer{ChromePath: vars.CHROME_PATH})

	// 5. 初始化 Handler (API 层)
	contractHandler := handler.NewContractHandler(analysisSvc, compareSvc, exportSvc)
	assistantHandler := handler.NewAssistantHandler(chatSvc, venueSvc)

	// 6. 启动 Web Server
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20
	router.RegisterRoutes(r, contractHandler, assistantHandler)

	logger.Info("server running", "port", vars.PORT)
	if err := r.Run(":" + vars.PORT); err != nil {
		fatal("server stopped", err)
	}
}

func llmKey() string {
	if vars.LLM_PROVIDER == vars.PROVIDER_XAI {
		return vars.XAI_API_KEY
	}
	return vars.OPENAI_API_KEY
}

func llmModel() string {
	switch vars.LLM_PROVIDER {
	case vars.PROVIDER_XAI:
		return vars.XAI_MODEL
	case vars.PROVIDER_OLLAMA:
		return vars.OLLAMA_MODEL
	}
	return vars.OPENAI_MODEL
}

func llmBaseURL() string {
	switch vars.LLM_PROVIDER {
	case vars.PROVIDER_XAI:
		return vars.XAI_BASEURL
	case vars.PROVIDER_OLLAMA:
		return vars.OLLAMA_PATH
	}
	return vars.OPENAI_BASE_URL
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
