// cmd/cnab/main.go
package main

import (
	"log"
	"os"

	"cnab-service/internal/api/handlers"
	"cnab-service/internal/api/responses"
	"cnab-service/internal/config"
	"cnab-service/internal/core/converter"
	"cnab-service/internal/core/layout"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("Falha ao carregar configuração: ", err)
	}

	logger, err := responses.InitLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal("Falha ao iniciar o logger: ", err)
	}
	defer logger.Sync()

	loader := layout.Default()
	if cfg.Layouts.Dir != "" {
		loader = layout.NewLoader(os.DirFS(cfg.Layouts.Dir))
		logger.Info("layouts externos habilitados", zap.String("dir", cfg.Layouts.Dir))
	}

	converterService := converter.NewService(loader, cfg.Retorno.Workers, logger)
	converterHandler := handlers.NewConverterHandler(converterService, cfg.Layouts.DefaultVersion)

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/retorno/parse", converterHandler.HandleRetornoParse)
		apiV1.POST("/remessa/generate", converterHandler.HandleRemessaGenerate)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "cnab-service"})
	})

	logger.Info("CNAB Service iniciado", zap.String("porta", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Falha ao iniciar o servidor", zap.Error(err))
	}
}
