// Package bytecode compiles per-field spawn expressions into compact byte
// programs and executes them against reflected projectile instances. One
// program covers one spawn entry: every configured field of the projectile
// class contributes a short instruction sequence, and running the program
// fills a freshly allocated instance for one spawn.
//
// The format is designed for:
//   - Compact representation (1 opcode byte plus a fixed-width operand)
//   - Fast decoding (no jumps, no variable-length instructions)
//   - Easy serialization (programs round-trip through CBOR snapshots)
//
// # Architecture Overview
//
//   - Opcodes: a small accumulator instruction set. Arithmetic ops fold a
//     float32 constant into the accumulator, store ops flush it into a field
//     identified by its byte offset, and slot ops move values through sixteen
//     scratch slots for cross-term expressions.
//
//   - Program: the compiled unit. Holds the code bytes, the class descriptor
//     the offsets were compiled against, and a side table of resolved
//     references (textures, color maps, nested generators). Instructions
//     address the side table by index, never by machine pointer, so programs
//     stay position-independent and serializable.
//
//   - Compiler: converts the textual expression grammar ("i0.5 r2 d0.01")
//     into instructions, one field script at a time. Comma splits a script
//     across the flattened members of vector and struct fields.
//
//   - Execution: a register-less interpreter. State is one accumulator, one
//     handle register, and the scratch slots, all reset per invocation, so a
//     program may run concurrently against distinct instances.
//
// Programs are only valid against the descriptor they were compiled with.
// After a snapshot round-trip the descriptor and handle references must be
// relinked before execution; see Relink.
package bytecode
