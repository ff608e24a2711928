package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageDriverS3    = "s3"
	StorageDriverLocal = "local"

	StoreDriverFile  = "file"
	StoreDriverRedis = "redis"
	StoreDriverMongo = "mongo"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Store    StoreConfig    `mapstructure:"store"`
	Legacy   LegacyConfig   `mapstructure:"legacy"`
	Headline HeadlineConfig `mapstructure:"headline"`
	Jobs     []JobConfig    `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	MaxUploadBytes int64         `mapstructure:"maxUploadBytes"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StorageConfig 图片所在的对象存储
type StorageConfig struct {
	Driver        string        `mapstructure:"driver"` // s3 / local
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"accessKey"`
	SecretKey     string        `mapstructure:"secretKey"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	PublicBaseURL string        `mapstructure:"publicBaseURL"`
	KeyPrefix     string        `mapstructure:"keyPrefix"`
	UploadTimeout time.Duration `mapstructure:"uploadTimeout"`
	BasePath      string        `mapstructure:"basePath"`  // local 驱动的存储目录
	ServePath     string        `mapstructure:"servePath"` // local 驱动挂载的静态路由，如 /assets
}

// StoreConfig 文章元数据所在的文档
type StoreConfig struct {
	Driver string      `mapstructure:"driver"` // file / redis / mongo
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
	Mongo  MongoConfig `mapstructure:"mongo"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	LockTTL  time.Duration `mapstructure:"lockTTL"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	DocID      string `mapstructure:"docID"`
}

// LegacyConfig 旧版本地上传目录（static/uploads）
type LegacyConfig struct {
	Dir     string `mapstructure:"dir"`     // 非空时挂载到 /static/uploads
	BaseURL string `mapstructure:"baseURL"` // 旧记录文件名拼接的地址，空则旧记录不出图
}

type HeadlineConfig struct {
	SensitiveDict string `mapstructure:"sensitiveDict"` // 敏感词词库路径，空则不过滤
	MaskChar      string `mapstructure:"maskChar"`
}

type JobConfig struct {
	Name   string                 `mapstructure:"name"`
	Cron   string                 `mapstructure:"cron"`
	Enable bool                   `mapstructure:"enable"`
	Params map[string]interface{} `mapstructure:"params"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.maxUploadBytes", 10<<20)
	v.SetDefault("server.readTimeout", "60s")
	v.SetDefault("server.writeTimeout", "60s")
	v.SetDefault("storage.driver", StorageDriverS3)
	v.SetDefault("storage.keyPrefix", "articles")
	v.SetDefault("storage.uploadTimeout", "30s")
	v.SetDefault("storage.servePath", "/assets")
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.path", "instance/articles.json")
	v.SetDefault("store.redis.key", "ogprank:articles")
	v.SetDefault("store.redis.lockTTL", "10s")
	v.SetDefault("store.mongo.database", "ogprank")
	v.SetDefault("store.mongo.collection", "documents")
	v.SetDefault("store.mongo.docID", "articles")
	v.SetDefault("headline.maskChar", "*")
}

// LoadConfig 加载配置
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv() // 自动读取环境变量

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// 显式展开 YAML 中的 ${VAR}
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 必填项缺失时拒绝启动
func (c *Config) Validate() error {
	var errs []error
	missing := func(name, val string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	s := c.Storage
	switch s.Driver {
	case StorageDriverS3:
		missing("storage.endpoint", s.Endpoint)
		missing("storage.accessKey", s.AccessKey)
		missing("storage.secretKey", s.SecretKey)
		missing("storage.bucket", s.Bucket)
	case StorageDriverLocal:
		missing("storage.basePath", s.BasePath)
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", s.Driver))
	}
	missing("storage.publicBaseURL", s.PublicBaseURL)

	st := c.Store
	switch st.Driver {
	case StoreDriverFile:
		missing("store.path", st.Path)
	case StoreDriverRedis:
		missing("store.redis.addr", st.Redis.Addr)
	case StoreDriverMongo:
		missing("store.mongo.uri", st.Mongo.URI)
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", st.Driver))
	}

	if len([]rune(c.Headline.MaskChar)) > 1 {
		errs = append(errs, fmt.Errorf("headline.maskChar must be a single character"))
	}

	return errors.Join(errs...)
}
