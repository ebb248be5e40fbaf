// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ephemera is an embedded store for short-lived photos and videos.
//
// Every record carries its own expiry date. A sweeper deletes records once
// that date has passed, so nothing outlives its retention window.
//
//	store, err := ephemera.Open(ephemera.NewConfig(ephemera.WithPath("media.db")))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	intake, _ := store.NewIntake()
//	record, err := intake.Save(ctx, capture.Capture{Payload: jpeg, Kind: core.KindPhoto})
//
//	sweeper, _ := store.NewSweeper()
//	sweeper.Start(ctx)
//	defer sweeper.Stop()
package ephemera
