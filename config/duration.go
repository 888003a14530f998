package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Duration 中继等待时间
//
// JSON 中可以写成 "5s" 这样的字符串或纳秒数。
// 空字符串和 "none" 表示不限时，阻塞收发一直等待。
type Duration time.Duration

// UnmarshalJSON 解析字符串或纳秒数
func (d *Duration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" || s == "none" {
			*d = 0
			return nil
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("relay wait %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("relay wait must be a duration string or nanoseconds: %s", data)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON 不限时输出 "none"
func (d Duration) MarshalJSON() ([]byte, error) {
	if d == 0 {
		return json.Marshal("none")
	}
	return json.Marshal(d.String())
}

// Duration 返回 time.Duration
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }
