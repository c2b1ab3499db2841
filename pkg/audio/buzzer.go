// Cerberus Console
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cerberus Console.
//
// Cerberus Console is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cerberus Console is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cerberus Console.  If not, see <http://www.gnu.org/licenses/>.

package audio

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog/log"
)

const (
	DefaultToneHz = 2400
	DefaultVolume = 40
)

// SquareTone is an endless square wave at hz with the given amplitude.
func SquareTone(sr beep.SampleRate, hz, amplitude float64) beep.Streamer {
	period := float64(sr) / hz
	var pos float64
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := amplitude
			if pos >= period/2 {
				v = -amplitude
			}
			samples[i][0], samples[i][1] = v, v
			pos++
			if pos >= period {
				pos -= period
			}
		}
		return len(samples), true
	})
}

// Tone builds the buzzer stream. volume is a percentage.
func Tone(hz, volume int) beep.Streamer {
	if hz <= 0 {
		hz = DefaultToneHz
	}
	volume = min(max(volume, 0), 100)
	// effects.Gain scales by 1+Gain
	return &effects.Gain{
		Streamer: SquareTone(SampleRate, float64(hz), 1),
		Gain:     float64(volume)/100 - 1,
	}
}

// Buzzer is the console's sound actuator. On starts a continuous tone and
// off silences it.
type Buzzer struct {
	out    Output
	cancel context.CancelFunc
	wg     sync.WaitGroup
	hz     int
	volume int
	mu     syncutil.Mutex
	on     bool
	closed bool
}

func NewBuzzer(out Output, hz, volume int) *Buzzer {
	return &Buzzer{out: out, hz: hz, volume: volume}
}

func (b *Buzzer) Set(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || on == b.on {
		return
	}
	b.on = on

	if !on {
		b.cancel()
		b.cancel = nil
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	tone := Tone(b.hz, b.volume)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.out.Play(ctx, tone); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("failed to play buzzer tone")
		}
	}()
}

// On reports the current buzzer level.
func (b *Buzzer) On() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

// Listen follows alarm.sound notifications until the channel closes or
// ctx is cancelled, then silences the buzzer.
func (b *Buzzer) Listen(ctx context.Context, notifs <-chan models.Notification) {
	defer b.Set(false)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifs:
			if !ok {
				return
			}
			if n.Method != models.NotificationAlarmSound {
				continue
			}
			var alarm models.AlarmNotification
			if err := json.Unmarshal(n.Params, &alarm); err != nil {
				log.Warn().Err(err).Msg("invalid alarm.sound params")
				continue
			}
			b.Set(alarm.On)
		}
	}
}

// Close silences the buzzer and waits for playback to stop.
func (b *Buzzer) Close() {
	b.Set(false)
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}
