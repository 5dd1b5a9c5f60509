package transpiler

// debugRuntimeSource is the in-process debug helper emitted alongside
// instrumented tests. Commands arrive over a WebSocket and a polled
// command file; both feed the same apply() transition so the two
// channels can never disagree about the current mode.
const debugRuntimeSource = fileHeader + `
import * as fs from 'fs';
import WebSocket from 'ws';

type Mode = 'running' | 'paused' | 'stepping';

interface Command {
  type: 'resume' | 'step' | 'stop' | 'set-breakpoints';
  lines?: number[];
}

const POLL_INTERVAL_MS = 50;

class VeroDebugger {
  private mode: Mode = 'running';
  private breakpoints = new Set<number>();
  private ws?: WebSocket;
  private commandFile = process.env.VERO_DEBUG_COMMANDS ?? '';
  private lastCommand = '';

  constructor() {
    const addr = process.env.VERO_DEBUG_WS ?? '';
    if (addr !== '') {
      this.ws = new WebSocket(addr);
      this.ws.on('message', (raw) => {
        try {
          this.apply(JSON.parse(raw.toString()) as Command);
        } catch {
          // malformed frames are dropped
        }
      });
      this.ws.on('error', () => {});
    }
  }

  // apply is the only place the mode changes, whichever channel the
  // command came from. stop never returns.
  private apply(cmd: Command): void {
    switch (cmd.type) {
      case 'resume':
        this.mode = 'running';
        break;
      case 'step':
        this.mode = 'stepping';
        break;
      case 'stop':
        process.exit(1);
        break;
      case 'set-breakpoints':
        this.breakpoints = new Set(cmd.lines ?? []);
        break;
    }
  }

  private pollFile(): void {
    if (this.commandFile === '') {
      return;
    }
    let raw: string;
    try {
      raw = fs.readFileSync(this.commandFile, 'utf8');
    } catch {
      return;
    }
    if (raw === '' || raw === this.lastCommand) {
      return;
    }
    this.lastCommand = raw;
    try {
      this.apply(JSON.parse(raw) as Command);
    } catch {
      // partial write, next poll gets the full file
    }
  }

  private emit(type: string, payload: Record<string, unknown>): void {
    if (this.ws && this.ws.readyState === WebSocket.OPEN) {
      this.ws.send(JSON.stringify({ type, payload }));
    }
  }

  private async waitWhilePaused(): Promise<void> {
    while (this.mode === 'paused') {
      this.pollFile();
      await new Promise((resolve) => setTimeout(resolve, POLL_INTERVAL_MS));
    }
  }

  async step(line: number, action: string, target: string, fn: () => Promise<void>): Promise<void> {
    this.pollFile();
    if (this.breakpoints.has(line) || this.mode === 'stepping') {
      this.mode = 'paused';
      this.emit('execution:paused', { line, action, target });
      await this.waitWhilePaused();
    }
    this.emit('step:before', { line, action, target });
    const start = Date.now();
    try {
      await fn();
      this.emit('step:after', { line, action, target, success: true, duration: Date.now() - start });
    } catch (err) {
      this.emit('step:after', { line, action, target, success: false, duration: Date.now() - start });
      throw err;
    }
  }

  reportVariable(name: string, value: unknown): void {
    this.emit('variable', { name, value });
  }
}

export const __vero = new VeroDebugger();
`
