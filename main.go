/*
main.go

Copyright © 2025 Code Monkey Cybersecurity
Contact: git@cybermonkey.net.au

This file is part of pirescue.

This software is dual-licensed under the Do No Harm License
and the GNU Affero General Public License v3 (AGPL-3.0-or-later).
You may use, modify, and distribute it under the terms of either license.

See LICENSE.agpl and LICENSE.dnh for full details.
*/
package main

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/cmd"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	logger.InitializeWithFallback()
	log := logger.L()
	if log == nil {
		panic("❌ logger.L() returned nil, logger not initialized")
	}
	if err := telemetry.Init(shared.AppName); err != nil {
		log.Warn("Telemetry disabled", zap.Error(err))
	}

	cmd.Execute()
}
