package server

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/palemoky/ninety-nine/internal/config"
)

// window 固定窗口计数器
type window struct {
	size  time.Duration
	start time.Time
	count int
}

// hit 记一次并返回当前窗口内的次数
func (w *window) hit(now time.Time) int {
	if now.Sub(w.start) >= w.size {
		w.start = now
		w.count = 0
	}
	w.count++
	return w.count
}

// --- 握手准入 ---

// accessPolicy 握手前的 IP 与来源校验，由配置一次性生成，之后只读
type accessPolicy struct {
	anyOrigin bool
	origins   map[string]bool
	whitelist map[string]bool // 为空表示不限制
	blacklist map[string]bool
}

func newAccessPolicy(cfg config.SecurityConfig) *accessPolicy {
	p := &accessPolicy{
		origins:   make(map[string]bool, len(cfg.AllowedOrigins)),
		whitelist: toSet(cfg.IPWhitelist),
		blacklist: toSet(cfg.IPBlacklist),
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.ToLower(strings.TrimSpace(o))] = true
	}
	return p
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			set[it] = true
		}
	}
	return set
}

// allowIP 黑名单优先于白名单
func (p *accessPolicy) allowIP(ip string) bool {
	if p.blacklist[ip] {
		return false
	}
	return len(p.whitelist) == 0 || p.whitelist[ip]
}

// allowOrigin 没有 Origin 头的本地客户端总是放行
func (p *accessPolicy) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if p.anyOrigin || origin == "" {
		return true
	}
	return p.origins[strings.ToLower(origin)]
}

// --- 连接频率 ---

// connLimiter 按 IP 限制建立连接的频率，超限后封禁一段时间
type connLimiter struct {
	mu        sync.Mutex
	ips       map[string]*ipRecord
	perSecond int
	perMinute int
	ban       time.Duration
	now       func() time.Time

	stop chan struct{}
	once sync.Once
}

type ipRecord struct {
	second      window
	minute      window
	bannedUntil time.Time
}

// connCleanupInterval 清理过期 IP 记录的间隔
const connCleanupInterval = 5 * time.Minute

func newConnLimiter(cfg config.RateLimitConfig) *connLimiter {
	return &connLimiter{
		ips:       make(map[string]*ipRecord),
		perSecond: cfg.MaxPerSecond,
		perMinute: cfg.MaxPerMinute,
		ban:       cfg.BanDurationTime(),
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// run 定期清理，Stop 后退出
func (l *connLimiter) run() {
	ticker := time.NewTicker(connCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			l.cleanup(now)
		case <-l.stop:
			return
		}
	}
}

// Stop 停止清理协程
func (l *connLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// allow 记录一次握手，超过每秒或每分钟额度时开始封禁
func (l *connLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.ips[ip]
	if !ok {
		rec = &ipRecord{second: window{size: time.Second}, minute: window{size: time.Minute}}
		l.ips[ip] = rec
	}
	if now.Before(rec.bannedUntil) {
		return false
	}
	perSecond := rec.second.hit(now)
	perMinute := rec.minute.hit(now)
	if perSecond > l.perSecond || perMinute > l.perMinute {
		rec.bannedUntil = now.Add(l.ban)
		log.Printf("⚠️ IP %s 连接过于频繁，封禁 %v", ip, l.ban)
		return false
	}
	return true
}

// cleanup 删除 10 分钟内没有连接且未被封禁的记录
func (l *connLimiter) cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, rec := range l.ips {
		if now.Sub(rec.minute.start) > 10*time.Minute && now.After(rec.bannedUntil) {
			delete(l.ips, ip)
			removed++
		}
	}
	return removed
}

// GetClientIP 获取客户端真实 IP，优先使用代理头
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
