package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/naoina/toml"
)

// tomlSettings はGoのフィールド名をそのままキーとして使う
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// FileConfig は設定ファイルの内容
type FileConfig struct {
	Runtime RuntimeSection
	Display DisplaySection
	Log     LogSection
}

// RuntimeSection は [Runtime] セクション
type RuntimeSection struct {
	FPS       int
	MaxFrames int
	Timeout   int // 秒
	Encoding  string
}

// DisplaySection は [Display] セクション
type DisplaySection struct {
	Width    int
	Height   int
	Headless bool
}

// LogSection は [Log] セクション
type LogSection struct {
	Level string
}

// fileConfigFrom Configから設定ファイルの形式に変換
func fileConfigFrom(c *Config) FileConfig {
	return FileConfig{
		Runtime: RuntimeSection{
			FPS:       c.FPS,
			MaxFrames: c.MaxFrames,
			Timeout:   int(c.Timeout / time.Second),
			Encoding:  c.Encoding,
		},
		Display: DisplaySection{
			Width:    c.Width,
			Height:   c.Height,
			Headless: c.Headless,
		},
		Log: LogSection{
			Level: c.LogLevel,
		},
	}
}

// apply 設定ファイルの内容をConfigへ反映
func (fc FileConfig) apply(c *Config) {
	c.FPS = fc.Runtime.FPS
	c.MaxFrames = fc.Runtime.MaxFrames
	c.Timeout = time.Duration(fc.Runtime.Timeout) * time.Second
	c.Encoding = fc.Runtime.Encoding
	c.Width = fc.Display.Width
	c.Height = fc.Display.Height
	c.Headless = fc.Display.Headless
	c.LogLevel = fc.Log.Level
}

// LoadConfigFile 設定ファイルを読み込んでConfigへ反映する
// ファイルに記述のない項目は現在の値のまま
func LoadConfigFile(path string, c *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := DecodeConfig(bufio.NewReader(f), c); err != nil {
		// 行番号付きのエラーにはファイル名を付ける
		var lineErr *toml.LineError
		if errors.As(err, &lineErr) {
			return errors.New(path + ", " + err.Error())
		}
		return err
	}
	return nil
}

// DecodeConfig TOMLを読み込んでConfigへ反映する
func DecodeConfig(r io.Reader, c *Config) error {
	fc := fileConfigFrom(c)
	if err := tomlSettings.NewDecoder(r).Decode(&fc); err != nil {
		return err
	}
	fc.apply(c)
	return nil
}

// DumpConfig 有効な設定をTOMLで書き出す
func DumpConfig(w io.Writer, c *Config) error {
	fc := fileConfigFrom(c)
	out, err := tomlSettings.Marshal(&fc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
