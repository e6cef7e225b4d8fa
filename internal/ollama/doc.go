// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Answers are produced with the /api/generate endpoint in streaming mode.
// Ollama writes one JSON object per line; each carries a fragment of the
// answer in "response" and the last one has "done": true.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - GenerateStream: Pull reader over one streamed answer
//   - ClientError: Typed error with an ErrorType for handling
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{Model: "llama3.2:1b"})
//	if err := client.EnsureRunning(ctx); err != nil {
//	    return err
//	}
//	stream, err := client.Stream(ctx, "Why is the sky blue?")
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for {
//	    fragment, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(fragment)
//	}
package ollama
