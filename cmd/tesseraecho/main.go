// Command tesseraecho is a TCP server that demonstrates the cache
// engine: each connection speaks a trivial "<key> <value>" line
// protocol, inserting the pair into a shared cache and echoing
// confirmation back to the client. An admin HTTP server alongside it
// exposes cache statistics and Prometheus metrics.
//
// Command tesseraecho 是一个演示缓存引擎的TCP服务器：每个连接使用简单的
// "<key> <value>" 行协议，将键值对插入共享缓存并将确认信息回显给客户端。
// 旁边的管理HTTP服务器暴露缓存统计信息和Prometheus指标。
package main

import (
	"bufio"
	"flag"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tesseracache/tessera/internal/obslog"
	"github.com/tesseracache/tessera/pkg/cache"
)

func main() {
	// Parse command line flags
	// 解析命令行参数
	addr := flag.String("addr", "127.0.0.1:8080", "TCP address to listen on")
	adminAddr := flag.String("admin-addr", "127.0.0.1:9090", "admin HTTP address (stats + /metrics)")
	cacheSize := flag.Int("cache-size", 100, "maximum number of cache entries")
	ttl := flag.Duration("ttl", 60*time.Second, "time-to-live for cache entries")
	shards := flag.Int("shards", 16, "number of cache shards")
	flag.Parse()

	log := obslog.NewConsole(0)

	c, err := cache.NewBuilder[string, string]().
		WithMaxWeightedSize(int64(*cacheSize)).
		WithTimeToLive(*ttl).
		WithShardCount(*shards).
		WithLogger(log).
		WithMetrics("tesseraecho", "cache").
		WithEvictionListener(func(key, value string, causeVal cache.EvictionCause) {
			log.Info().Str("key", key).Str("value", value).Str("cause", causeVal.String()).Msg("evicted")
		}).
		Build()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build cache")
	}
	defer c.Close()

	go serveAdmin(*adminAddr, c, log)

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("failed to listen")
	}
	log.Info().Str("addr", *addr).Msg("listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Error().Err(err).Msg("accept failed")
			continue
		}
		go handleConn(conn, c, log)
	}
}

func handleConn(conn net.Conn, c *cache.Cache[string, string], log obslog.Logger) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			conn.Write([]byte("invalid message format, expected: <key> <value>\n"))
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		c.Insert(key, value)
		log.Debug().Str("key", key).Str("value", value).Msg("inserted")

		if _, err := conn.Write([]byte("Inserted\n")); err != nil {
			log.Error().Err(err).Msg("write failed")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read failed")
	}
}

func serveAdmin(addr string, c *cache.Cache[string, string], log obslog.Logger) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/stats", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"len":               c.Len(),
			"weighted_size":     c.WeightedSize(),
			"max_weighted_size": c.MaxWeightedSize(),
			"time_to_live":      c.TimeToLive().String(),
		})
	})

	if h := c.Metrics().Handler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}

	log.Info().Str("addr", addr).Msg("admin server listening")
	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("admin server stopped")
	}
}
