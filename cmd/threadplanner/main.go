package main

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"threadplanner/internal/boot"
	"threadplanner/internal/handlers"
	"threadplanner/internal/service/publisher"
	"threadplanner/internal/store"
	"threadplanner/internal/threads"
)

type Template struct {
	templates *template.Template
	watcher   *fsnotify.Watcher
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func (t *Template) Watch() {
	var err error

	t.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-t.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					log.Infof("reloading templates: %s", event.Name)
					t.templates = template.Must(template.ParseGlob("ui/views/*.html"))
				}
			case err, ok := <-t.watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watcher: %+v", err)
			}
		}
	}()

	err = t.watcher.Add("./ui/views")
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}
}

func (t *Template) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
}

func NewTemplate() *Template {
	return &Template{
		templates: template.Must(template.ParseGlob("ui/views/*.html")),
	}
}

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %+v", err)
	}

	posts, err := store.New(config)
	if err != nil {
		log.Fatalf("opening store: %+v", err)
	}
	defer posts.Close()

	client := threads.NewClient(config.Threads.BaseURL)
	pub := publisher.New(config, posts, client)

	server := echo.New()
	server.Use(middleware.BodyLimit("100M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("threadplanner"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(config.Server.Origins, ","),
		AllowHeaders: headers,
	}))

	server.Static("/static", "ui/static")

	t := NewTemplate()
	defer t.Close()
	if config.IsDevelopment() {
		t.Watch()
	}
	server.Renderer = t

	server.GET("/", func(c echo.Context) error {
		return c.Render(http.StatusOK, "app.html", nil)
	})

	server.POST("/api/posts/upload", handlers.UploadPosts(posts))
	server.GET("/api/posts", handlers.ListPosts(posts))
	server.DELETE("/api/posts/pending", handlers.DeletePendingPosts(posts))
	server.DELETE("/api/posts/:id", handlers.DeletePost(posts))
	server.POST("/api/posts/:id/requeue", handlers.RequeuePost(posts))
	server.POST("/api/scheduler/run", handlers.RunScheduler(pub))
	server.POST("/api/token/refresh", handlers.RefreshToken(pub))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
